package entity

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message metadata types
const (
	MessageTypeError    = "error"
	MessageTypeWarning  = "warning"
	MessageTypeReport   = "report"
	MessageTypeWelcome  = "welcome"
	MessageTypeResponse = "response"
)

type MessageMetadata struct {
	Type    string `json:"type,omitempty"`
	Section string `json:"section,omitempty"`
	Action  string `json:"action,omitempty"`
}

// ChatMessage belongs to exactly one session. Timestamp is unix milliseconds.
type ChatMessage struct {
	Id          string           `json:"id"`
	SessionId   string           `json:"sessionId,omitempty"`
	Role        string           `json:"role"`
	Content     string           `json:"content"`
	Timestamp   int64            `json:"timestamp"`
	IsStreaming bool             `json:"isStreaming,omitempty"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
}

func (m ChatMessage) IsSystem() bool {
	return m.Role == RoleSystem
}

func (m ChatMessage) IsError() bool {
	return m.Metadata != nil && m.Metadata.Type == MessageTypeError
}
