package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wagate/internal/models"

	"gorm.io/gorm"
)

// GormStore keeps token blobs in the main application database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// GetToken returns the stored blob for session, nil when absent.
func (s *GormStore) GetToken(ctx context.Context, session string) (json.RawMessage, error) {
	var rec models.TokenRecord
	err := s.db.WithContext(ctx).Where("session = ?", session).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if rec.Data == "" {
		return nil, nil
	}
	return json.RawMessage(rec.Data), nil
}

// SetToken upserts the blob for session.
func (s *GormStore) SetToken(ctx context.Context, session string, data json.RawMessage) error {
	db := s.db.WithContext(ctx)

	var existing models.TokenRecord
	if err := db.Where("session = ?", session).First(&existing).Error; err == nil {
		existing.Data = string(data)
		if err := db.Save(&existing).Error; err != nil {
			return fmt.Errorf("update token: %w", err)
		}
		return nil
	}

	rec := models.TokenRecord{Session: session, Data: string(data)}
	if err := db.Create(&rec).Error; err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// RemoveToken deletes the blob for session so it cannot auto-restore.
func (s *GormStore) RemoveToken(ctx context.Context, session string) error {
	// Hard delete: a soft-deleted row would still hold the unique session
	// index and block the next pairing's Create.
	if err := s.db.WithContext(ctx).Unscoped().Where("session = ?", session).Delete(&models.TokenRecord{}).Error; err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
