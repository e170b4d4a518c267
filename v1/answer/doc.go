// Package answer turns free-form model output into typed values.
//
// ExtractNumber pulls a number out of text, ParseJSON recovers a JSON value
// from prose or Markdown fences and ParseSections splits "[[field]]" style
// documents. Output that does not have the expected shape yields a
// bad-answer error: it wraps ErrBadAnswer and carries the samber/oops code
// CodeBadAnswer.
//
//	n, err := answer.ExtractNumber("score: 7 of 10", answer.WithPosition(answer.First))
//	v, err := answer.ParseJSON("```json\n{\"ok\": true}\n```", true, "ok")
//
// Importing the package also registers extract_number, parse_json and parse
// in extstr.DefaultRegistry, so they can be chained on tagged strings:
//
//	v, err := s.Call("extract_number", answer.WithRounding())
package answer
