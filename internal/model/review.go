package model

import (
	"time"

	"gorm.io/gorm"
)

// Review is a free-standing rating left by a user
type Review struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user" gorm:"type:uuid;index;not null"`
	Comment   string    `json:"comment" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}
