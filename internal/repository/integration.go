package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/finboard/internal/model"
)

var (
	ErrIntegrationNotFound = errors.New("calendar integration not found")
)

type IntegrationRepository interface {
	ByUserID(userID string) (*model.CalendarIntegration, error)
	// Upsert inserts or replaces the row keyed by user_id. A nil refresh
	// token keeps the stored one.
	Upsert(integration *model.CalendarIntegration) error
	Delete(userID string) error
}

type integrationRepository struct {
	db *sqlx.DB
}

func NewIntegrationRepository(db *sqlx.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) ByUserID(userID string) (*model.CalendarIntegration, error) {
	integration := &model.CalendarIntegration{}
	query := `SELECT * FROM google_integrations WHERE user_id = $1`

	err := r.db.Get(integration, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrIntegrationNotFound
	}

	return integration, err
}

func (r *integrationRepository) Upsert(integration *model.CalendarIntegration) error {
	now := time.Now()
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	integration.UpdatedAt = now

	// ON CONFLICT ... DO UPDATE is understood by both SQLite (3.24+) and PostgreSQL
	query := `INSERT INTO google_integrations (id, user_id, access_token, refresh_token, expires_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (user_id) DO UPDATE SET
	              access_token = excluded.access_token,
	              refresh_token = COALESCE(excluded.refresh_token, google_integrations.refresh_token),
	              expires_at = excluded.expires_at,
	              updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		integration.ID,
		integration.UserID,
		integration.AccessToken,
		integration.RefreshToken,
		integration.ExpiresAt.UTC(),
		integration.CreatedAt.UTC(),
		integration.UpdatedAt.UTC(),
	)

	return err
}

func (r *integrationRepository) Delete(userID string) error {
	result, err := r.db.Exec(`DELETE FROM google_integrations WHERE user_id = $1`, userID)
	return expectRow(result, err, ErrIntegrationNotFound)
}
