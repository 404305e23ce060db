package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/qti-delivery-service/internal/cache"
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories"
)

// SessionPostgreSQL stores session blobs in the delivery_sessions table
// with a Redis read-through cache in front. The cache degrades
// gracefully when no Redis client is configured.
type SessionPostgreSQL struct {
	db             *gorm.DB
	cacheManager   *cache.CacheManager
	testIdentifier string
}

// NewSessionPostgreSQL returns a store writing rows tagged with the
// given test identifier.
func NewSessionPostgreSQL(db *gorm.DB, redisClient *redis.Client, testIdentifier string) repositories.BinaryStore {
	return &SessionPostgreSQL{
		db:             db,
		cacheManager:   cache.NewCacheManager(redisClient),
		testIdentifier: testIdentifier,
	}
}

// Migrate creates or updates the delivery_sessions table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SessionRecord{}); err != nil {
		return fmt.Errorf("migrating delivery sessions table: %w", err)
	}
	return nil
}

func (s *SessionPostgreSQL) Put(ctx context.Context, sessionID string, data []byte) error {
	record := &models.SessionRecord{
		SessionID:      sessionID,
		TestIdentifier: s.testIdentifier,
		State:          data,
		Metadata:       datatypes.JSON("{}"),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("storing session row: %w", err)
	}

	if err := s.cacheManager.Session.SetBytes(ctx, sessionID, data, cache.SessionCacheConfig.TTL); err != nil {
		cache.SafeDelete(ctx, s.cacheManager.Session, sessionID)
	}
	return nil
}

func (s *SessionPostgreSQL) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if data, err := s.cacheManager.Session.GetBytes(ctx, sessionID); err == nil {
		return data, nil
	}

	var record models.SessionRecord
	err := s.db.WithContext(ctx).
		Select("state").
		Where("session_id = ?", sessionID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrBlobNotFound
		}
		return nil, fmt.Errorf("loading session row: %w", err)
	}

	if err := s.cacheManager.Session.SetBytes(ctx, sessionID, record.State, cache.SessionCacheConfig.TTL); err != nil {
		cache.SafeDelete(ctx, s.cacheManager.Session, sessionID)
	}
	return record.State, nil
}

func (s *SessionPostgreSQL) Exists(ctx context.Context, sessionID string) (bool, error) {
	if ok, err := s.cacheManager.Session.Exists(ctx, sessionID); err == nil && ok {
		return true, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking session row: %w", err)
	}
	return count > 0, nil
}

func (s *SessionPostgreSQL) Delete(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.SessionRecord{}).Error
	if err != nil {
		return fmt.Errorf("deleting session row: %w", err)
	}
	cache.InvalidateSessionCache(ctx, s.cacheManager, sessionID)
	return nil
}
