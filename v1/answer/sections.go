package answer

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultFieldFormat matches section headers like "[[summary]]". The first
// capture group is the field name.
const DefaultFieldFormat = `\[\[(.*?)\]\]`

// ParseSections splits a document into sections and returns them keyed by
// field name. A section starts with a header line matching fieldFormat
// (DefaultFieldFormat when empty) and runs until the next header that
// starts a line, or the end of the text.
//
//	[[summary]]
//	Short text.
//	[[Verdict]]
//	yes
//
// gives {"summary": "Short text.", "verdict": "yes"}. Keys are trimmed and
// lower-cased; values are kept verbatim. A repeated field keeps its last
// section. Missing required fields give a bad-answer error.
func ParseSections(text, fieldFormat string, requiredFields ...string) (map[string]string, error) {
	if fieldFormat == "" {
		fieldFormat = DefaultFieldFormat
	}
	header, err := regexp.Compile(fieldFormat)
	if err != nil {
		return nil, fmt.Errorf("answer: invalid field format: %w", err)
	}

	headers := header.FindAllStringSubmatchIndex(text, -1)
	result := make(map[string]string)

	pos := 0
	for i := 0; i < len(headers); i++ {
		h := headers[i]
		if h[0] < pos || h[1] >= len(text) || text[h[1]] != '\n' {
			continue
		}
		valueStart := h[1] + 1
		valueEnd := len(text)
		for _, next := range headers[i+1:] {
			if next[0]-1 >= valueStart && text[next[0]-1] == '\n' {
				valueEnd = next[0] - 1
				break
			}
		}
		if valueEnd == len(text) && valueEnd > valueStart && text[valueEnd-1] == '\n' {
			// the last section stops before a single trailing newline
			valueEnd--
		}

		key := text[h[0]:h[1]]
		if len(h) >= 4 && h[2] >= 0 {
			key = text[h[2]:h[3]]
		}
		result[strings.ToLower(strings.TrimSpace(key))] = text[valueStart:valueEnd]
		pos = valueEnd
	}

	for _, field := range requiredFields {
		if _, ok := result[field]; !ok {
			return nil, BadAnswer(fmt.Sprintf("field %q is required but not found", field), "field", field)
		}
	}
	return result, nil
}
