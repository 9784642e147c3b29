package specification

import (
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID string
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// ExcludeIDs drops rows whose primary key is in IDs. An empty list matches everything.
type ExcludeIDs struct {
	IDs []string
}

func (s ExcludeIDs) Apply(db *gorm.DB) *gorm.DB {
	if len(s.IDs) == 0 {
		return db
	}
	return db.Where("id NOT IN ?", s.IDs)
}

// WithMessages preloads a session's messages in timestamp order.
type WithMessages struct{}

func (WithMessages) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("sent_at ASC")
	})
}
