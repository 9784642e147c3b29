package model

type ChatSession struct {
	Id        string `gorm:"type:varchar(64);primaryKey"`
	Title     string `gorm:"type:text;not null"`
	Topic     string `gorm:"type:text"`
	Category  string `gorm:"type:varchar(100);index"`
	Model     string `gorm:"type:varchar(100)"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false"` // unix ms, owned by the chat service
	UpdatedAt int64  `gorm:"not null;index;autoUpdateTime:false"`

	Messages []ChatMessage `gorm:"foreignKey:ChatSessionId;constraint:OnDelete:CASCADE"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
