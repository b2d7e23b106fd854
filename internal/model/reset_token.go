package model

import "time"

// PasswordResetToken holds the bcrypt hash of the single active reset token of a user
type PasswordResetToken struct {
	UserID    string    `json:"userId" gorm:"type:uuid;primaryKey"`
	Token     string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// Expired reports whether the token is older than ttl at now
func (t *PasswordResetToken) Expired(ttl time.Duration, now time.Time) bool {
	return now.After(t.CreatedAt.Add(ttl))
}
