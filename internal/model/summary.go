package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
	PeriodAll     = "all"

	CategoryAll = "all"
)

type FinancialSummary struct {
	Period            string          `json:"period"`
	Category          string          `json:"category"`
	From              *time.Time      `json:"from,omitempty"`
	To                *time.Time      `json:"to,omitempty"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	Balance           decimal.Decimal `json:"balance"`
	PreviousBalance   decimal.Decimal `json:"previous_balance"`
	IncomeChange      float64         `json:"income_change"`
	ExpenseChange     float64         `json:"expense_change"`
	FormattedBalance  string          `json:"formatted_balance"`
	TransactionsCount int             `json:"transactions_count"`
}

type MonthlyTotals struct {
	Month    string          `json:"month"` // YYYY-MM
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Label    string          `json:"label"`
	Total    decimal.Decimal `json:"total"`
	Percent  float64         `json:"percent"`
}
