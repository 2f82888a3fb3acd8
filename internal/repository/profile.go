package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/finboard/internal/model"
)

type ProfileRepository interface {
	ByUserID(userID string) (*model.Profile, error)
	Create(profile *model.Profile) error
	Update(profile *model.Profile) error
	SetMustChangePassword(userID string, must bool) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Get(&profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.Role == "" {
		profile.Role = model.RoleUser
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}

	_, err := r.db.Exec(`
		INSERT INTO profiles (id, user_id, full_name, role, must_change_password, phone, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, profile.ID, profile.UserID, profile.FullName, profile.Role, profile.MustChangePassword,
		profile.Phone, profile.Timezone, profile.CreatedAt.UTC(), profile.UpdatedAt.UTC())

	return err
}

// Update writes the user-editable fields. Role and the password flag are not touched.
func (r *profileRepository) Update(profile *model.Profile) error {
	profile.UpdatedAt = time.Now()
	result, err := r.db.Exec(`
		UPDATE profiles
		SET full_name = $1, phone = $2, timezone = $3, updated_at = $4
		WHERE user_id = $5
	`, profile.FullName, profile.Phone, profile.Timezone, profile.UpdatedAt.UTC(), profile.UserID)

	return expectRow(result, err, ErrProfileNotFound)
}

func (r *profileRepository) SetMustChangePassword(userID string, must bool) error {
	result, err := r.db.Exec(`
		UPDATE profiles
		SET must_change_password = $1, updated_at = $2
		WHERE user_id = $3
	`, must, time.Now().UTC(), userID)

	return expectRow(result, err, ErrProfileNotFound)
}
