package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-service/internal/model"
	"commerce-service/prometheus"

	"gorm.io/gorm"
)

// GormStore keeps reset tokens in the password_reset_tokens table and
// treats rows older than ttl as absent.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormStore creates a database backed store
func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Replace(ctx context.Context, userID, hash string) error {
	done := prometheus.TrackDBOperation("reset_token_replace")
	defer done(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.PasswordResetToken{
			UserID:    userID,
			Token:     hash,
			CreatedAt: s.now(),
		}).Error
	})
}

func (s *GormStore) Get(ctx context.Context, userID string) (string, error) {
	done := prometheus.TrackDBOperation("reset_token_get")
	defer done(time.Now())

	var token model.PasswordResetToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}

	if token.Expired(s.ttl, s.now()) {
		if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return "", fmt.Errorf("failed to delete expired reset token: %w", err)
		}
		return "", ErrTokenNotFound
	}
	return token.Token, nil
}

func (s *GormStore) Delete(ctx context.Context, userID string) error {
	done := prometheus.TrackDBOperation("reset_token_delete")
	defer done(time.Now())

	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PasswordResetToken{}).Error
}
