package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Profile struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	FullName           string    `db:"full_name" json:"full_name"`
	Role               string    `db:"role" json:"role"`
	MustChangePassword bool      `db:"must_change_password" json:"must_change_password"`
	Phone              string    `db:"phone" json:"phone"`
	Timezone           string    `db:"timezone" json:"timezone"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Location resolves the profile timezone, falling back to def when unset or unknown.
func (p *Profile) Location(def *time.Location) *time.Location {
	if p == nil || p.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return def
	}
	return loc
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
