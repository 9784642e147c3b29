package entity

const DefaultSessionTitle = "New Chat"

// ChatSession owns its messages, ordered by Timestamp ascending.
type ChatSession struct {
	Id        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
	Topic     string        `json:"topic,omitempty"`
	Category  string        `json:"category,omitempty"`
	Model     string        `json:"model,omitempty"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		if m.Metadata != nil {
			md := *m.Metadata
			m.Metadata = &md
		}
		c.Messages[i] = m
	}
	return &c
}

// NextTimestamp returns now unless that would not be strictly after the last
// message, in which case it returns last+1.
func (s *ChatSession) NextTimestamp(now int64) int64 {
	if n := len(s.Messages); n > 0 && now <= s.Messages[n-1].Timestamp {
		return s.Messages[n-1].Timestamp + 1
	}
	return now
}

func (s *ChatSession) HasDefaultTitle() bool {
	return s.Title == "" || s.Title == DefaultSessionTitle
}

// NonSystemMessages filters out system messages, keeping order.
func NonSystemMessages(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if !m.IsSystem() {
			out = append(out, m)
		}
	}
	return out
}

// LastN returns the trailing n messages (all of them if fewer).
func LastN(messages []ChatMessage, n int) []ChatMessage {
	if n <= 0 {
		return []ChatMessage{}
	}
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
