package models

import (
	"time"

	"gorm.io/gorm"
)

// TokenRecord persists the opaque credential blob for one session.
type TokenRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Session   string         `json:"session" gorm:"uniqueIndex;size:100;not null"`
	Data      string         `json:"data" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for TokenRecord
func (TokenRecord) TableName() string {
	return "session_tokens"
}
