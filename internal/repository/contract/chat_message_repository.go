package contract

import (
	"context"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/specification"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, sessionId string, message *entity.ChatMessage) error
	// Upsert inserts the messages or overwrites existing rows with the same id.
	Upsert(ctx context.Context, sessionId string, messages []entity.ChatMessage) error
	Delete(ctx context.Context, specs ...specification.Specification) error
	DeleteByChatSessionId(ctx context.Context, sessionId string) error
}
