package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"commerce-service/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T, ttl time.Duration) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.PasswordResetToken{}))
	return NewGormStore(db, ttl)
}

func TestGormStoreReplaceKeepsSingleToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 15*time.Minute)

	require.NoError(t, s.Replace(ctx, "user-1", "first"))
	require.NoError(t, s.Replace(ctx, "user-1", "second"))

	got, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	var count int64
	s.db.Model(&model.PasswordResetToken{}).Where("user_id = ?", "user-1").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGormStoreExpiresTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 15*time.Minute)

	issued := time.Now()
	s.now = func() time.Time { return issued }
	require.NoError(t, s.Replace(ctx, "user-1", "hash"))

	s.now = func() time.Time { return issued.Add(14 * time.Minute) }
	_, err := s.Get(ctx, "user-1")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = s.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestGormStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Minute)

	require.NoError(t, s.Replace(ctx, "user-1", "hash"))
	require.NoError(t, s.Delete(ctx, "user-1"))

	_, err := s.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = s.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestGormStoreReportsFailedExpiryCleanup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 15*time.Minute)

	issued := time.Now()
	s.now = func() time.Time { return issued }
	require.NoError(t, s.Replace(ctx, "user-1", "hash"))

	boom := errors.New("disk full")
	require.NoError(t, s.db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		_ = tx.AddError(boom)
	}))

	s.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err := s.Get(ctx, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}
