// Package uploadstore is the ledger of object-storage writes. It makes
// the storage-then-document write sequence observable: a blob write is
// recorded before the photo document exists and linked afterwards, so
// orphaned blobs can be listed. The ledger never deletes blobs; the
// write sequence is intentionally left non-transactional.
package uploadstore

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type UploadStore struct {
	db *gorm.DB
}

func New(dsn string, logLevel int) (*UploadStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.LogLevel(logLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqldb, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(50)
	sqldb.SetConnMaxLifetime(time.Hour)

	return &UploadStore{db: db}, nil
}

func (s *UploadStore) AutoMigrate() error {
	return s.db.AutoMigrate(&UploadRecord{})
}

// RecordUpload registers a completed blob write before its photo
// document exists.
func (s *UploadStore) RecordUpload(ctx context.Context, key, url, photoType string) error {
	return s.db.WithContext(ctx).Create(&UploadRecord{
		Key:  key,
		URL:  url,
		Type: photoType,
	}).Error
}

// MarkLinked attaches the photo document ID to a recorded blob write.
func (s *UploadStore) MarkLinked(ctx context.Context, key, photoID string) error {
	return s.db.WithContext(ctx).
		Model(&UploadRecord{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{"photo_id": photoID, "linked": true}).Error
}

// ListOrphans returns blob writes that never got a photo document,
// oldest first.
func (s *UploadStore) ListOrphans(ctx context.Context) ([]UploadRecord, error) {
	var orphans []UploadRecord
	err := s.db.WithContext(ctx).
		Where("linked = ?", false).
		Order("created_at asc").
		Find(&orphans).Error

	return orphans, err
}
