package llm

import (
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Aleph-Alpha/microcore/v1/answer"
	"github.com/Aleph-Alpha/microcore/v1/extstr"
)

// Attribute names set on every Response.
const (
	AttrRole        = "role"
	AttrContent     = "content"
	AttrGenDuration = "gen_duration"
)

// Response is the text generated by a model. It behaves as a tagged string:
// String() is the generated text and the fields returned by the API are
// attached as attributes (id, model, created, finish_reason, usage,
// system_fingerprint).
type Response struct {
	s extstr.String
}

// NewResponse builds a Response with role=assistant, content=text and no
// gen_duration. attrs override these defaults.
func NewResponse(text string, attrs map[string]any) Response {
	merged := map[string]any{
		AttrRole:    RoleAssistant,
		AttrContent: text,
	}
	for k, v := range attrs {
		merged[k] = v
	}
	return Response{s: extstr.New(text, merged)}
}

// String returns the generated text.
func (r Response) String() string { return r.s.String() }

// Text is String.
func (r Response) Text() string { return r.s.Text() }

// Attr returns an attribute returned by the API.
func (r Response) Attr(name string) (any, bool) { return r.s.Attr(name) }

// Attrs returns a copy of all attributes.
func (r Response) Attrs() map[string]any { return r.s.Attrs() }

// Tagged returns the underlying tagged string.
func (r Response) Tagged() extstr.String { return r.s }

// Equal compares the text only.
func (r Response) Equal(other any) bool { return r.s.Equal(other) }

// Call invokes a chainable function from extstr.DefaultRegistry on the text.
func (r Response) Call(name string, args ...any) (any, error) { return r.s.Call(name, args...) }

// MarshalJSON encodes the response as a JSON string of its text.
func (r Response) MarshalJSON() ([]byte, error) { return r.s.MarshalJSON() }

// Role returns the role attribute, assistant by default.
func (r Response) Role() Role {
	switch v, _ := r.Attr(AttrRole); role := v.(type) {
	case Role:
		return role
	case string:
		return Role(role)
	}
	return RoleAssistant
}

// Content returns the content attribute, falling back to the text.
func (r Response) Content() string {
	if c, ok := extstr.AttrAs[string](r.s, AttrContent); ok {
		return c
	}
	return r.Text()
}

// GenDuration returns how long generation took, if it was measured.
func (r Response) GenDuration() (time.Duration, bool) {
	return extstr.AttrAs[time.Duration](r.s, AttrGenDuration)
}

// Usage returns the token usage reported by the API, zero if absent.
func (r Response) Usage() openai.Usage {
	u, _ := extstr.AttrAs[openai.Usage](r.s, "usage")
	return u
}

// ParseJSON parses the content with answer.ParseJSON.
func (r Response) ParseJSON(raiseErrors bool, requiredFields ...string) (any, error) {
	return answer.ParseJSON(r.Content(), raiseErrors, requiredFields...)
}

// ParseNumber extracts a number from the content with answer.ExtractNumber.
// Unless opts carry their own default, a missing number is a bad-answer error.
func (r Response) ParseNumber(opts ...answer.NumberOption) (float64, error) {
	all := make([]answer.NumberOption, 0, len(opts)+1)
	all = append(all, answer.WithDefault(answer.BadAnswer("no number in model answer")))
	all = append(all, opts...)
	return answer.ExtractNumber(r.Content(), all...)
}

// AsMessage returns the response as an assistant message, for feeding it
// back into a conversation.
func (r Response) AsMessage() Message {
	return AssistantMsg(r.Text())
}
