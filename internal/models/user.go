package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered account. Password holds a bcrypt hash and is never serialized.
type User struct {
	ID          ID        `gorm:"type:varchar(36);primaryKey" json:"id"`
	LoginName   string    `gorm:"uniqueIndex;not null" json:"login_name"`
	Password    string    `gorm:"not null" json:"-"`
	FirstName   string    `gorm:"not null" json:"first_name"`
	LastName    string    `gorm:"not null" json:"last_name"`
	Email       string    `json:"email,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	AvatarKey   string    `json:"-"`
	Description string    `json:"description,omitempty"`
	Occupation  string    `json:"occupation,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewID()
	}
	return nil
}
