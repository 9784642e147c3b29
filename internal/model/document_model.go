package model

import "time"

type UploadedDocument struct {
	Id          string    `gorm:"type:varchar(64);primaryKey"`
	Name        string    `gorm:"type:text;not null"`
	Type        string    `gorm:"type:varchar(255)"`
	Size        int64     `gorm:"not null"`
	TextContent string    `gorm:"type:text"`
	Summary     string    `gorm:"type:text"`
	Url         string    `gorm:"type:text"`
	Timestamp   int64     `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}
