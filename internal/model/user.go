package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"` // Nullable for Google-only users
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	// Computed fields (not in database)
	AvatarURL string `db:"-" json:"avatar_url,omitempty"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
