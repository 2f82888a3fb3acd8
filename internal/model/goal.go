package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultGoalIcon = "Shield"

type Goal struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"-"`
	Title         string          `db:"title" json:"title"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"current_amount"`
	Deadline      *time.Time      `db:"deadline" json:"deadline,omitempty"`
	Icon          string          `db:"icon" json:"icon"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ProgressPercent is current/target in percent, capped at 100.
func (g *Goal) ProgressPercent() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	f, _ := pct.Round(1).Float64()
	return f
}

// DaysLeft counts whole days until the deadline, never negative.
// Goals without a deadline report nil.
func (g *Goal) DaysLeft(now time.Time) *int {
	if g.Deadline == nil {
		return nil
	}
	days := int(math.Ceil(g.Deadline.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

func (g *Goal) IsReached() bool {
	return g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// GoalView is a goal with its derived progress fields, as sent to clients.
type GoalView struct {
	*Goal
	ProgressPercent float64 `json:"progress_percent"`
	DaysLeft        *int    `json:"days_left"`
	Reached         bool    `json:"reached"`
}

func (g *Goal) View(now time.Time) GoalView {
	return GoalView{
		Goal:            g,
		ProgressPercent: g.ProgressPercent(),
		DaysLeft:        g.DaysLeft(now),
		Reached:         g.IsReached(),
	}
}
