package answer

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/microcore/v1/extstr"
)

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts []NumberOption
		want float64
	}{
		{"last by default", "3 apples and 4.5 pears", nil, 4.5},
		{"first", "score: -12.5 out of 100", []NumberOption{WithPosition(First)}, -12.5},
		{"round half to even negative", "score: -12.5 out of 100", []NumberOption{WithPosition(First), WithRounding()}, -12},
		{"round half to even down", "2.5", []NumberOption{WithRounding()}, 2},
		{"round half to even up", "3.5", []NumberOption{WithRounding()}, 4},
		{"int type splits decimals", "value 2.75", []NumberOption{WithType(Int)}, 75},
		{"int type first", "value 2.75", []NumberOption{WithType(Int), WithPosition(First)}, 2},
		{"rounding forces float syntax", "value 2.75", []NumberOption{WithType(Int), WithRounding()}, 3},
		{"leading dot", "p=.25", nil, 0.25},
		{"explicit plus", "delta +7", nil, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNumber(tt.text, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractNumberDefaults(t *testing.T) {
	_, err := ExtractNumber("no digits here")
	assert.ErrorIs(t, err, ErrNoNumber)
	assert.False(t, IsBadAnswer(err))

	v, err := ExtractNumber("none", WithDefault(-1))
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)

	v, err = ExtractNumber("none", WithDefault(func() float64 { return 42 }))
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	v, err = ExtractNumber("four", WithDefault(func(text string) float64 { return float64(len(text)) }))
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	sentinel := errors.New("custom")
	_, err = ExtractNumber("none", WithDefault(func(string) (float64, error) { return 0, sentinel }))
	assert.ErrorIs(t, err, sentinel)

	_, err = ExtractNumber("none", WithDefault(BadAnswer("no score")))
	assert.True(t, IsBadAnswer(err))

	_, err = ExtractNumber("7", WithDefault("seven"))
	assert.ErrorIs(t, err, ErrInvalidDefault)

	v, err = ExtractNumber("found 9", WithDefault(sentinel))
	require.NoError(t, err)
	assert.Equal(t, 9.0, v, "defaults only apply when nothing parses")

	_, err = ExtractNumber("1", WithPosition(Position(5)))
	assert.Error(t, err)
}

func TestBadAnswerIsCoded(t *testing.T) {
	err := BadAnswer("broken", "field", "score")
	assert.ErrorIs(t, err, ErrBadAnswer)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, CodeBadAnswer, oopsErr.Code())
	assert.Equal(t, "score", oopsErr.Context()["field"])
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{"plain object", `{"a": 1}`, map[string]any{"a": 1.0}},
		{"fenced", "Here you go:\n```json\n{\"ok\": true}\n```\nThanks", map[string]any{"ok": true}},
		{"prose around array", `The list is [1, 2, 3] as requested.`, []any{1.0, 2.0, 3.0}},
		{"prose around object", `Result: {"x": {"y": "z"}} done`, map[string]any{"x": map[string]any{"y": "z"}}},
		{"bare number", "42.", 42.0},
		{"bare bool", "True", true},
		{"json string", `"text"`, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON(tt.text, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONFailures(t *testing.T) {
	_, err := ParseJSON("not json at all", true)
	assert.True(t, IsBadAnswer(err))

	v, err := ParseJSON("not json at all", false)
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseJSON(`{"a": 1}`, false, "a", "b")
	assert.True(t, IsBadAnswer(err))

	_, err = ParseJSON(`[1, 2]`, true, "a")
	assert.True(t, IsBadAnswer(err))

	v, err = ParseJSON(`{"a": 1, "b": null}`, true, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": nil}, v)
}

func TestParseSections(t *testing.T) {
	text := "intro\n[[ Summary ]]\nShort text.\nSecond line.\n[[Verdict]]\nyes"

	got, err := ParseSections(text, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"summary": "Short text.\nSecond line.",
		"verdict": "yes",
	}, got)

	_, err = ParseSections(text, "", "summary", "score")
	assert.True(t, IsBadAnswer(err))

	custom, err := ParseSections("## a\n1\n## b\n2", `## (\w+)`, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, custom)

	_, err = ParseSections("x", "([")
	assert.Error(t, err)
	assert.False(t, IsBadAnswer(err))
}

func TestParseSectionsTrailingNewline(t *testing.T) {
	got, err := ParseSections("[[a]]\nfoo\n[[b]]\nbar\n", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "foo", "b": "bar"}, got)

	got, err = ParseSections("[[a]]\nfoo\n\n", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "foo\n"}, got)

	got, err = ParseSections("[[a]]\n", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": ""}, got)
}

func TestParseSectionsHeaderMustStartLine(t *testing.T) {
	got, err := ParseSections("[[a]]\nsee [[b]] inline\n[[c]]\nend", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "see [[b]] inline", "c": "end"}, got)
}

func TestRegisteredFunctions(t *testing.T) {
	s := extstr.New("score: -12.5 out of 100", map[string]any{"id": "x"})

	v, err := s.Call("extract_number", WithPosition(First))
	require.NoError(t, err)
	assert.Equal(t, -12.5, v)

	_, err = s.Call("extract_number", "first")
	assert.Error(t, err)

	j := extstr.New(`{"a": 1}`, nil)
	v, err = j.Call("parse_json", true, "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)

	doc := extstr.New("[[a]]\nx", nil)
	v, err = doc.Call("parse")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x"}, v)
}
