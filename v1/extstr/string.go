package extstr

import (
	"encoding/json"
	"fmt"
	"maps"
)

// String is a text value that carries an arbitrary set of named attributes.
//
// The text is the value: String() returns it, Equal compares only it and Key
// returns it for use as a map key. Attributes are side data and never take
// part in comparisons. A String is immutable; With returns a modified copy.
type String struct {
	text  string
	attrs map[string]any
}

// New returns a String with the given text and a copy of attrs.
// A nil or empty attrs map yields a String without attributes.
func New(text string, attrs map[string]any) String {
	s := String{text: text}
	if len(attrs) > 0 {
		s.attrs = maps.Clone(attrs)
	}
	return s
}

// String returns the text payload.
func (s String) String() string {
	return s.text
}

// Text is an alias for String.
func (s String) Text() string {
	return s.text
}

// Len returns the length of the text in bytes.
func (s String) Len() int {
	return len(s.text)
}

// Attr returns the attached attribute with the given name.
func (s String) Attr(name string) (any, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

// Has reports whether an attribute with the given name is attached.
func (s String) Has(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

// Attrs returns a copy of all attached attributes. It never returns nil.
func (s String) Attrs() map[string]any {
	if s.attrs == nil {
		return map[string]any{}
	}
	return maps.Clone(s.attrs)
}

// With returns a copy of s with the attribute name set to value.
func (s String) With(name string, value any) String {
	out := String{text: s.text, attrs: make(map[string]any, len(s.attrs)+1)}
	maps.Copy(out.attrs, s.attrs)
	out.attrs[name] = value
	return out
}

// WithText returns a copy of s holding the same attributes and a different text.
func (s String) WithText(text string) String {
	return String{text: text, attrs: s.attrs}
}

// Equal reports whether other has the same text as s.
//
// other may be a string, a String, a *String or any fmt.Stringer.
// Attributes are ignored on both sides.
func (s String) Equal(other any) bool {
	switch o := other.(type) {
	case string:
		return s.text == o
	case String:
		return s.text == o.text
	case *String:
		return o != nil && s.text == o.text
	case fmt.Stringer:
		return s.text == o.String()
	default:
		return false
	}
}

// Key returns the value used for hashing, which is the text.
func (s String) Key() string {
	return s.text
}

// MarshalJSON encodes s as a plain JSON string.
func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.text)
}

// UnmarshalJSON decodes a JSON string into s. Attributes are cleared.
func (s *String) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	s.text = text
	s.attrs = nil
	return nil
}

// AttrAs returns the named attribute converted to T.
// ok is false when the attribute is missing or holds a different type.
func AttrAs[T any](s String, name string) (T, bool) {
	var zero T
	v, ok := s.attrs[name]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
