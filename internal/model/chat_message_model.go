package model

import "gorm.io/datatypes"

type ChatMessage struct {
	Id            string         `gorm:"type:varchar(64);primaryKey"`
	ChatSessionId string         `gorm:"type:varchar(64);not null;index:idx_chat_messages_session_sent"`
	Role          string         `gorm:"type:varchar(20);not null"`
	Content       string         `gorm:"type:text;not null"`
	SentAt        int64          `gorm:"not null;index:idx_chat_messages_session_sent"`
	IsStreaming   bool           `gorm:"not null"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
