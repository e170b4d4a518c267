package llm

import "fmt"

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMsg returns a user message.
func UserMsg(content string) Message { return Message{Role: RoleUser, Content: content} }

// SysMsg returns a system message.
func SysMsg(content string) Message { return Message{Role: RoleSystem, Content: content} }

// AssistantMsg returns an assistant message.
func AssistantMsg(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// AsUser turns any string-like value, a tagged string included, into a user
// message.
func AsUser(s fmt.Stringer) Message { return UserMsg(s.String()) }

// AsSystem turns s into a system message.
func AsSystem(s fmt.Stringer) Message { return SysMsg(s.String()) }

// AsAssistant turns s into an assistant message.
func AsAssistant(s fmt.Stringer) Message { return AssistantMsg(s.String()) }

// AsModel is AsAssistant.
func AsModel(s fmt.Stringer) Message { return AsAssistant(s) }
