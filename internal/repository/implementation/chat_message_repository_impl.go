package implementation

import (
	"context"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/mapper"
	"ai-devguide-be/internal/model"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, sessionId string, message *entity.ChatMessage) error {
	m := r.mapper.ChatMessageToModel(sessionId, message)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ChatMessageRepositoryImpl) Upsert(ctx context.Context, sessionId string, messages []entity.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	models := make([]*model.ChatMessage, len(messages))
	for i := range messages {
		models[i] = r.mapper.ChatMessageToModel(sessionId, &messages[i])
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(models, 100).Error
}

func (r *ChatMessageRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) error {
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	return query.Delete(&model.ChatMessage{}).Error
}

func (r *ChatMessageRepositoryImpl) DeleteByChatSessionId(ctx context.Context, sessionId string) error {
	return r.db.WithContext(ctx).Where("chat_session_id = ?", sessionId).Delete(&model.ChatMessage{}).Error
}
