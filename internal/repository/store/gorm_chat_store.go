package store

import (
	"context"
	"fmt"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/internal/repository/specification"
	"ai-devguide-be/internal/repository/unitofwork"
)

// GormChatStore persists chat sessions through the unit of work.
type GormChatStore struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ contract.ChatStore = (*GormChatStore)(nil)

func NewGormChatStore(uowFactory unitofwork.RepositoryFactory) *GormChatStore {
	return &GormChatStore{uowFactory: uowFactory}
}

func (s *GormChatStore) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := uow.ChatMessageRepository().Upsert(ctx, session.Id, session.Messages); err != nil {
		return fmt.Errorf("create session messages: %w", err)
	}
	return uow.Commit()
}

// GetSession returns nil, nil when the session does not exist.
func (s *GormChatStore) GetSession(ctx context.Context, id string) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.WithMessages{},
	)
}

func (s *GormChatStore) ListSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindAll(ctx,
		specification.WithMessages{},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
}

func (s *GormChatStore) AddMessage(ctx context.Context, sessionId string, message *entity.ChatMessage) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().Create(ctx, sessionId, message)
}

func (s *GormChatStore) UpdateSession(ctx context.Context, session *entity.ChatSession) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	ids := make([]string, len(session.Messages))
	for i, m := range session.Messages {
		ids[i] = m.Id
	}
	// drop rows the snapshot no longer holds, e.g. replaced placeholders
	if err := uow.ChatMessageRepository().Delete(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.ExcludeIDs{IDs: ids},
	); err != nil {
		return fmt.Errorf("prune session messages: %w", err)
	}
	if err := uow.ChatMessageRepository().Upsert(ctx, session.Id, session.Messages); err != nil {
		return fmt.Errorf("upsert session messages: %w", err)
	}
	return uow.Commit()
}

func (s *GormChatStore) DeleteSession(ctx context.Context, id string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, id); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}
	if err := uow.ChatSessionRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return uow.Commit()
}
