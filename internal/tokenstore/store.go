// Package tokenstore keeps the single active password reset token of each user.
// Only bcrypt hashes are stored.
package tokenstore

import (
	"context"
	"errors"
)

// ErrTokenNotFound is returned when a user has no live reset token
var ErrTokenNotFound = errors.New("reset token not found")

// Store holds at most one reset token hash per user
type Store interface {
	// Replace drops any previous token of userID and stores hash
	Replace(ctx context.Context, userID, hash string) error
	// Get returns the live hash for userID or ErrTokenNotFound
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}
