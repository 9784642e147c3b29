package dto

import "ai-devguide-be/internal/entity"

type CreateChatSessionRequest struct {
	Title    string `json:"title" validate:"max=120"`
	Category string `json:"category" validate:"max=60"`
	Topic    string `json:"topic" validate:"max=120"`
	Model    string `json:"model" validate:"max=120"`
}

type RenameChatSessionRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}

type SetChatCategoryRequest struct {
	Category string `json:"category" validate:"max=60"`
}

type SendChatMessageRequest struct {
	Content     string `json:"content" validate:"required,max=8000"`
	CurrentPage string `json:"currentPage" validate:"max=500"`
	Model       string `json:"model" validate:"max=120"`
}

type SendChatMessageResponse struct {
	SessionId string              `json:"sessionId"`
	Title     string              `json:"title"`
	Reply     *entity.ChatMessage `json:"reply"`
}

// ChatSessionSummary is the list view of a session, without messages.
type ChatSessionSummary struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category,omitempty"`
	Topic        string `json:"topic,omitempty"`
	Model        string `json:"model,omitempty"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

func NewChatSessionSummary(s *entity.ChatSession) ChatSessionSummary {
	return ChatSessionSummary{
		Id:           s.Id,
		Title:        s.Title,
		Category:     s.Category,
		Topic:        s.Topic,
		Model:        s.Model,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
