package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/money"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
)

const DefaultSeriesMonths = 6

var (
	ErrInvalidPeriod          = errors.New("period must be weekly, monthly, yearly or all")
	ErrInvalidTransactionType = errors.New("type must be income or expense")
	ErrNegativeAmount         = errors.New("amount must not be negative")
	ErrDescriptionRequired    = errors.New("description is required")
	ErrDateRequired           = errors.New("date is required")
)

type TransactionInput struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
}

// SummaryFilter selects the reporting period and category. Empty values mean
// monthly and all categories.
type SummaryFilter struct {
	Period   string
	Category string
}

type TransactionService struct {
	repo repository.TransactionRepository
	hub  *realtime.Hub
	now  func() time.Time
}

func NewTransactionService(repo repository.TransactionRepository, hub *realtime.Hub) *TransactionService {
	return &TransactionService{
		repo: repo,
		hub:  hub,
		now:  time.Now,
	}
}

func (s *TransactionService) Create(userID string, input TransactionInput) (*model.Transaction, error) {
	err := normalizeTransaction(&input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tx := &model.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Description: input.Description,
		Amount:      input.Amount,
		Type:        input.Type,
		Category:    input.Category,
		Date:        input.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableTransactions, Op: realtime.OpInsert, RecordID: tx.ID})
	withIcon(tx)
	return tx, nil
}

func (s *TransactionService) Update(userID, id string, input TransactionInput) (*model.Transaction, error) {
	err := normalizeTransaction(&input)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.ByID(userID, id)
	if err != nil {
		return nil, err
	}

	tx.Description = input.Description
	tx.Amount = input.Amount
	tx.Type = input.Type
	tx.Category = input.Category
	tx.Date = input.Date

	err = s.repo.Update(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableTransactions, Op: realtime.OpUpdate, RecordID: id})
	withIcon(tx)
	return tx, nil
}

func (s *TransactionService) Delete(userID, id string) error {
	err := s.repo.Delete(userID, id)
	if err != nil {
		return err
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableTransactions, Op: realtime.OpDelete, RecordID: id})
	return nil
}

// Transactions lists newest first.
func (s *TransactionService) Transactions(userID string, filter repository.TransactionFilter) ([]*model.Transaction, error) {
	txs, err := s.repo.Transactions(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	for _, tx := range txs {
		withIcon(tx)
	}
	return txs, nil
}

// Categories returns the known categories followed by any other category the
// user has used.
func (s *TransactionService) Categories(userID string) ([]model.Category, error) {
	used, err := s.repo.Categories(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := append([]model.Category(nil), model.Categories...)
	for _, id := range used {
		if _, ok := model.KnownCategory(id); ok {
			continue
		}
		categories = append(categories, model.Category{ID: id, Label: money.Label(id), Icon: model.DefaultCategoryIcon})
	}
	return categories, nil
}

// Summary totals the selected period and compares it with the one before.
func (s *TransactionService) Summary(userID string, filter SummaryFilter, loc *time.Location) (*model.FinancialSummary, error) {
	current, previous, err := periodRanges(filter.Period, s.now(), loc)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.Transactions(userID, repository.TransactionFilter{
		From:     current.from,
		To:       current.to,
		Category: filter.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	income, expenses := totals(txs)

	summary := &model.FinancialSummary{
		Period:            current.period,
		Category:          categoryOrAll(filter.Category),
		From:              current.from,
		To:                current.to,
		TotalIncome:       income,
		TotalExpenses:     expenses,
		Balance:           income.Sub(expenses),
		FormattedBalance:  money.FormatBRL(income.Sub(expenses)),
		TransactionsCount: len(txs),
	}

	if previous != nil {
		prevTxs, err := s.repo.Transactions(userID, repository.TransactionFilter{
			From:     previous.from,
			To:       previous.to,
			Category: filter.Category,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list previous transactions: %w", err)
		}
		prevIncome, prevExpenses := totals(prevTxs)

		summary.PreviousBalance = prevIncome.Sub(prevExpenses)
		summary.IncomeChange = money.ChangePercent(income, prevIncome)
		summary.ExpenseChange = money.ChangePercent(expenses, prevExpenses)
	}

	return summary, nil
}

// MonthlySeries returns income and expenses of the last months that have
// transactions, oldest first. Months are calendar months in loc.
func (s *TransactionService) MonthlySeries(userID string, months int, loc *time.Location) ([]model.MonthlyTotals, error) {
	if months <= 0 {
		months = DefaultSeriesMonths
	}

	txs, err := s.repo.Transactions(userID, repository.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	byMonth := make(map[string]*model.MonthlyTotals)
	for _, tx := range txs {
		key := tx.Date.In(loc).Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &model.MonthlyTotals{Month: key, Income: decimal.Zero, Expenses: decimal.Zero}
			byMonth[key] = m
		}
		if tx.IsIncome() {
			m.Income = m.Income.Add(tx.Amount)
		} else {
			m.Expenses = m.Expenses.Add(tx.Amount)
		}
	}

	series := make([]model.MonthlyTotals, 0, len(byMonth))
	for _, m := range byMonth {
		series = append(series, *m)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })

	if len(series) > months {
		series = series[len(series)-months:]
	}
	return series, nil
}

// ExpensesByCategory breaks the period's expenses down by category, largest first.
func (s *TransactionService) ExpensesByCategory(userID string, filter SummaryFilter, loc *time.Location) ([]model.CategoryTotal, error) {
	current, _, err := periodRanges(filter.Period, s.now(), loc)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.Transactions(userID, repository.TransactionFilter{
		From:     current.from,
		To:       current.to,
		Category: filter.Category,
		Type:     model.TransactionTypeExpense,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	breakdown := make([]model.CategoryTotal, 0, len(byCategory))
	for category, sum := range byCategory {
		breakdown = append(breakdown, model.CategoryTotal{
			Category: category,
			Label:    categoryLabel(category),
			Total:    sum,
			Percent:  money.Share(sum, total),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Total.Equal(breakdown[j].Total) {
			return breakdown[i].Total.GreaterThan(breakdown[j].Total)
		}
		return breakdown[i].Category < breakdown[j].Category
	})

	return breakdown, nil
}

func normalizeTransaction(input *TransactionInput) error {
	input.Description = strings.TrimSpace(input.Description)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))

	if input.Description == "" {
		return invalid(ErrDescriptionRequired)
	}
	if input.Amount.IsNegative() {
		return invalid(ErrNegativeAmount)
	}
	if !model.ValidTransactionType(input.Type) {
		return invalid(ErrInvalidTransactionType)
	}
	err := validation.ValidateCategory(input.Category)
	if err != nil {
		return invalid(err)
	}
	if input.Date.IsZero() {
		return invalid(ErrDateRequired)
	}
	return nil
}

func totals(txs []*model.Transaction) (decimal.Decimal, decimal.Decimal) {
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.IsIncome() {
			income = income.Add(tx.Amount)
		} else {
			expenses = expenses.Add(tx.Amount)
		}
	}
	return income, expenses
}

func withIcon(tx *model.Transaction) {
	tx.Icon = model.DefaultCategoryIcon
	if c, ok := model.KnownCategory(tx.Category); ok {
		tx.Icon = c.Icon
	}
}

func categoryLabel(id string) string {
	if c, ok := model.KnownCategory(id); ok {
		return c.Label
	}
	return money.Label(id)
}

func categoryOrAll(category string) string {
	if category == "" {
		return model.CategoryAll
	}
	return category
}

type periodRange struct {
	period   string
	from, to *time.Time
}

// periodRanges returns the period containing now and the one before it.
// Weeks start on Monday. The "all" period has no bounds and no previous period.
func periodRanges(period string, now time.Time, loc *time.Location) (*periodRange, *periodRange, error) {
	if period == "" {
		period = model.PeriodMonthly
	}

	local := now.In(loc)
	var start, next, prev time.Time

	switch period {
	case model.PeriodWeekly:
		offset := (int(local.Weekday()) + 6) % 7
		start = time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 7)
		prev = start.AddDate(0, 0, -7)
	case model.PeriodMonthly:
		start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
		prev = start.AddDate(0, -1, 0)
	case model.PeriodYearly:
		start = time.Date(local.Year(), 1, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
		prev = start.AddDate(-1, 0, 0)
	case model.PeriodAll:
		return &periodRange{period: period}, nil, nil
	default:
		return nil, nil, invalid(ErrInvalidPeriod)
	}

	current := &periodRange{period: period, from: &start, to: &next}
	previous := &periodRange{period: period, from: &prev, to: &start}
	return current, previous, nil
}
