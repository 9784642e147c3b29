package mapper

import (
	"encoding/json"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

// ChatSessionToEntity maps the session row and any preloaded messages.
func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	messages := make([]entity.ChatMessage, 0, len(s.Messages))
	for i := range s.Messages {
		messages = append(messages, *m.ChatMessageToEntity(&s.Messages[i]))
	}

	return &entity.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		Messages:  messages,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Topic:     s.Topic,
		Category:  s.Category,
		Model:     s.Model,
	}
}

// ChatSessionToModel maps the session row only; messages are persisted separately.
func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	return &model.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		Topic:     s.Topic,
		Category:  s.Category,
		Model:     s.Model,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var metadata *entity.MessageMetadata
	if len(msg.Metadata) > 0 && string(msg.Metadata) != "null" {
		var md entity.MessageMetadata
		if err := json.Unmarshal(msg.Metadata, &md); err == nil {
			metadata = &md
		}
	}

	return &entity.ChatMessage{
		Id:          msg.Id,
		SessionId:   msg.ChatSessionId,
		Role:        msg.Role,
		Content:     msg.Content,
		Timestamp:   msg.SentAt,
		IsStreaming: msg.IsStreaming,
		Metadata:    metadata,
	}
}

func (m *ChatMapper) ChatMessageToModel(sessionId string, msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var metadata datatypes.JSON
	if msg.Metadata != nil {
		if b, err := json.Marshal(msg.Metadata); err == nil {
			metadata = datatypes.JSON(b)
		}
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: sessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		SentAt:        msg.Timestamp,
		IsStreaming:   msg.IsStreaming,
		Metadata:      metadata,
	}
}
