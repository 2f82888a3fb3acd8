package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/finboard/internal/model"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionFilter narrows a listing. Zero values mean "no constraint".
// From is inclusive, To is exclusive.
type TransactionFilter struct {
	From     *time.Time
	To       *time.Time
	Category string
	Type     string
	Limit    int
}

type TransactionRepository interface {
	Create(tx *model.Transaction) error
	ByID(userID, id string) (*model.Transaction, error)
	Transactions(userID string, filter TransactionFilter) ([]*model.Transaction, error)
	Categories(userID string) ([]string, error)
	Update(tx *model.Transaction) error
	Delete(userID, id string) error
}

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *model.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, description, amount, type, category, date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		tx.ID,
		tx.UserID,
		tx.Description,
		tx.Amount,
		tx.Type,
		tx.Category,
		tx.Date.UTC(),
		tx.CreatedAt.UTC(),
		tx.UpdatedAt.UTC(),
	)

	return err
}

func (r *transactionRepository) ByID(userID, id string) (*model.Transaction, error) {
	tx := &model.Transaction{}
	query := `SELECT * FROM transactions WHERE id = $1 AND user_id = $2`

	err := r.db.Get(tx, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}

	return tx, err
}

// Transactions lists newest first.
func (r *transactionRepository) Transactions(userID string, filter TransactionFilter) ([]*model.Transaction, error) {
	var txs []*model.Transaction

	where := []string{"user_id = $1"}
	args := []any{userID}

	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.From != nil {
		add("date >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		add("date < $%d", filter.To.UTC())
	}
	if filter.Category != "" && filter.Category != model.CategoryAll {
		add("category = $%d", filter.Category)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}

	query := `SELECT * FROM transactions WHERE ` + strings.Join(where, " AND ") + ` ORDER BY date DESC, created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	err := r.db.Select(&txs, query, args...)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *transactionRepository) Categories(userID string) ([]string, error) {
	var categories []string
	query := `SELECT DISTINCT category FROM transactions WHERE user_id = $1 ORDER BY category`

	err := r.db.Select(&categories, query, userID)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *transactionRepository) Update(tx *model.Transaction) error {
	tx.UpdatedAt = time.Now()
	query := `UPDATE transactions
	          SET description = $1, amount = $2, type = $3, category = $4, date = $5, updated_at = $6
	          WHERE id = $7 AND user_id = $8`

	result, err := r.db.Exec(query,
		tx.Description,
		tx.Amount,
		tx.Type,
		tx.Category,
		tx.Date.UTC(),
		tx.UpdatedAt.UTC(),
		tx.ID,
		tx.UserID,
	)

	return expectRow(result, err, ErrTransactionNotFound)
}

func (r *transactionRepository) Delete(userID, id string) error {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	return expectRow(result, err, ErrTransactionNotFound)
}
