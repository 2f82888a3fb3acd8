package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/finboard/internal/model"
)

const (
	GoalSortRecent   = "recent"
	GoalSortDeadline = "deadline"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	Goals(userID, sortBy string) ([]*model.Goal, error)
	Update(goal *model.Goal) error
	Delete(userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, title, target_amount, current_amount, deadline, icon, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.TargetAmount,
		goal.CurrentAmount,
		utcPtr(goal.Deadline),
		goal.Icon,
		goal.CreatedAt.UTC(),
		goal.UpdatedAt.UTC(),
	)

	return err
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.Get(goal, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}

	return goal, err
}

func (r *goalRepository) Goals(userID, sortBy string) ([]*model.Goal, error) {
	var goals []*model.Goal

	var orderBy string
	switch sortBy {
	case GoalSortDeadline:
		// goals without a deadline go last
		orderBy = "ORDER BY CASE WHEN deadline IS NULL THEN 1 ELSE 0 END, deadline ASC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY updated_at DESC"
	}

	query := `SELECT * FROM goals WHERE user_id = $1 ` + orderBy

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Update(goal *model.Goal) error {
	goal.UpdatedAt = time.Now()
	query := `UPDATE goals
	          SET title = $1, target_amount = $2, current_amount = $3, deadline = $4, icon = $5, updated_at = $6
	          WHERE id = $7 AND user_id = $8`

	result, err := r.db.Exec(query,
		goal.Title,
		goal.TargetAmount,
		goal.CurrentAmount,
		utcPtr(goal.Deadline),
		goal.Icon,
		goal.UpdatedAt.UTC(),
		goal.ID,
		goal.UserID,
	)

	return expectRow(result, err, ErrGoalNotFound)
}

func (r *goalRepository) Delete(userID, goalID string) error {
	result, err := r.db.Exec(`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	return expectRow(result, err, ErrGoalNotFound)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
