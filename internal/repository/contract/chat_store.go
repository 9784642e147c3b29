package contract

import (
	"context"

	"ai-devguide-be/internal/entity"
)

// ChatStore is the durable, eventually consistent home of chat sessions.
type ChatStore interface {
	CreateSession(ctx context.Context, session *entity.ChatSession) error
	GetSession(ctx context.Context, id string) (*entity.ChatSession, error)
	ListSessions(ctx context.Context) ([]*entity.ChatSession, error)
	AddMessage(ctx context.Context, sessionId string, message *entity.ChatMessage) error
	// UpdateSession writes the session row and reconciles its messages with the snapshot.
	UpdateSession(ctx context.Context, session *entity.ChatSession) error
	DeleteSession(ctx context.Context, id string) error
}

// SessionCache is the fast local copy of every session the process knows about.
type SessionCache interface {
	Save(ctx context.Context, session *entity.ChatSession) error
	Get(ctx context.Context, id string) (*entity.ChatSession, error)
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*entity.ChatSession, error)
}

// ReportStateRepository keeps report processing state for a bounded retention window.
type ReportStateRepository interface {
	Save(ctx context.Context, state *entity.ReportProcessingState) error
	Get(ctx context.Context, reportId string) (*entity.ReportProcessingState, error)
}

// DocumentStore holds uploaded report source documents. Documents are written once.
type DocumentStore interface {
	Save(ctx context.Context, doc *entity.UploadedDocument) error
	Get(ctx context.Context, id string) (*entity.UploadedDocument, error)
}
