package answer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var codeFence = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\\n?(.*?)```")

// ParseJSON extracts a JSON value from model output.
//
// The text may wrap the value in a Markdown code fence or surround it with
// prose; the outermost object or array is used. Text that is not JSON at all
// falls back to a bare number or boolean.
//
// When nothing parses, ParseJSON returns a bad-answer error if raiseErrors is
// set and (nil, nil) otherwise. requiredFields must all be keys of the
// resulting object; a missing field, or a non-object result, is a bad answer
// regardless of raiseErrors.
func ParseJSON(text string, raiseErrors bool, requiredFields ...string) (any, error) {
	value, ok := parseJSONValue(text)
	if !ok {
		if raiseErrors {
			return nil, BadAnswer("answer is not valid JSON", "text", truncate(text, 200))
		}
		return nil, nil
	}

	if len(requiredFields) > 0 {
		obj, isObj := value.(map[string]any)
		if !isObj {
			return nil, BadAnswer(fmt.Sprintf("expected a JSON object, got %T", value), "text", truncate(text, 200))
		}
		for _, field := range requiredFields {
			if _, ok := obj[field]; !ok {
				return nil, BadAnswer(fmt.Sprintf("field %q is required but not found", field), "field", field)
			}
		}
	}
	return value, nil
}

func parseJSONValue(text string) (any, bool) {
	candidate := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	if v, ok := decode(candidate); ok {
		return v, true
	}
	if inner, ok := outermost(candidate); ok {
		if v, ok := decode(inner); ok {
			return v, true
		}
	}
	return scalar(candidate)
}

func decode(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// outermost returns the span from the first '{' or '[' to the last matching
// closing bracket of the same kind.
func outermost(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	closing := byte('}')
	if s[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(s, closing)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func scalar(s string) (any, bool) {
	s = strings.Trim(s, " \t\r\n.`")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}
