package llm

import "strings"

var completionKeywords = []string{"instruct", "davinci", "babbage", "curie", "ada"}

// IsChatModel reports whether model is served by the chat completions API.
// A non-nil chatMode wins; otherwise names containing one of the legacy
// completion keywords are completion models.
func IsChatModel(model string, chatMode *bool) bool {
	if chatMode != nil {
		return *chatMode
	}
	lower := strings.ToLower(model)
	for _, kw := range completionKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
