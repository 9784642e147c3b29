package store

import (
	"context"
	"testing"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/model"
	"ai-devguide-be/internal/repository/unitofwork"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (*GormChatStore, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive across calls
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.ChatSession{}, &model.ChatMessage{}, &model.UploadedDocument{}))
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewGormChatStore(unitofwork.NewRepositoryFactory(db)), db
}

func session(id string, updated int64, messages ...entity.ChatMessage) *entity.ChatSession {
	return &entity.ChatSession{
		Id:        id,
		Title:     entity.DefaultSessionTitle,
		Messages:  messages,
		CreatedAt: 1000,
		UpdatedAt: updated,
	}
}

func TestGormChatStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	sess := session("s1", 1001,
		entity.ChatMessage{Id: "m2", Role: entity.RoleAssistant, Content: "hi there", Timestamp: 1002,
			Metadata: &entity.MessageMetadata{Type: entity.MessageTypeResponse}},
		entity.ChatMessage{Id: "m1", Role: entity.RoleUser, Content: "hello", Timestamp: 1001},
	)
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.DefaultSessionTitle, got.Title)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "m1", got.Messages[0].Id, "messages come back in timestamp order")
	assert.Equal(t, "s1", got.Messages[1].SessionId)
	require.NotNil(t, got.Messages[1].Metadata)
	assert.Equal(t, entity.MessageTypeResponse, got.Messages[1].Metadata.Type)
	assert.Nil(t, got.Messages[0].Metadata)

	missing, err := s.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormChatStoreAddMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, session("s1", 1000)))

	require.NoError(t, s.AddMessage(ctx, "s1", &entity.ChatMessage{Id: "m1", Role: entity.RoleUser, Content: "question", Timestamp: 1005}))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "question", got.Messages[0].Content)
}

func TestGormChatStoreUpdateSessionReconcilesMessages(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)

	placeholder := entity.ChatMessage{Id: "p", Role: entity.RoleAssistant, Content: "...", Timestamp: 1002, IsStreaming: true}
	require.NoError(t, s.CreateSession(ctx, session("s1", 1002,
		entity.ChatMessage{Id: "u", Role: entity.RoleUser, Content: "make a report", Timestamp: 1001},
		placeholder,
	)))

	updated := session("s1", 1003,
		entity.ChatMessage{Id: "u", Role: entity.RoleUser, Content: "make a report", Timestamp: 1001},
		entity.ChatMessage{Id: "done", Role: entity.RoleAssistant, Content: "report ready", Timestamp: 1003},
	)
	updated.Title = "make a report"
	updated.Category = "reports"
	require.NoError(t, s.UpdateSession(ctx, updated))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "make a report", got.Title)
	assert.Equal(t, "reports", got.Category)
	assert.Equal(t, int64(1003), got.UpdatedAt)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "done", got.Messages[1].Id)

	var count int64
	require.NoError(t, db.Model(&model.ChatMessage{}).Where("id = ?", "p").Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormChatStoreUpdateInsertsUnknownSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.UpdateSession(ctx, session("fresh", 2000,
		entity.ChatMessage{Id: "m", Role: entity.RoleUser, Content: "first", Timestamp: 2000})))

	got, err := s.GetSession(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Messages, 1)
}

func TestGormChatStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, session("old", 1000,
		entity.ChatMessage{Id: "a", Role: entity.RoleUser, Content: "a", Timestamp: 1000})))
	require.NoError(t, s.CreateSession(ctx, session("new", 5000,
		entity.ChatMessage{Id: "b", Role: entity.RoleUser, Content: "b", Timestamp: 5000})))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Id)
	assert.Len(t, list[1].Messages, 1)

	require.NoError(t, s.DeleteSession(ctx, "old"))

	list, err = s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var count int64
	require.NoError(t, db.Model(&model.ChatMessage{}).Where("chat_session_id = ?", "old").Count(&count).Error)
	assert.Zero(t, count, "deleting a session cascades to its messages")
}
