package service

import (
	"context"
	"time"

	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/repository"
	"golang.org/x/sync/errgroup"
)

const recentTransactionsLimit = 5

// Dashboard is everything the home screen shows in one payload.
type Dashboard struct {
	Summary            *model.FinancialSummary `json:"summary"`
	Monthly            []model.MonthlyTotals   `json:"monthly"`
	ExpensesByCategory []model.CategoryTotal   `json:"expenses_by_category"`
	RecentTransactions []*model.Transaction    `json:"recent_transactions"`
	Goals              []model.GoalView        `json:"goals"`
	TodayEvents        []model.CalendarEvent   `json:"today_events"`
}

type DashboardService struct {
	transactionService *TransactionService
	goalService        *GoalService
	eventService       *EventService
}

func NewDashboardService(
	transactionService *TransactionService,
	goalService *GoalService,
	eventService *EventService,
) *DashboardService {
	return &DashboardService{
		transactionService: transactionService,
		goalService:        goalService,
		eventService:       eventService,
	}
}

// Dashboard loads every section concurrently. Any failing section fails the
// whole payload, except external calendar problems, which EventService absorbs.
func (s *DashboardService) Dashboard(ctx context.Context, userID string, filter SummaryFilter, loc *time.Location) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.transactionService.Summary(userID, filter, loc)
		d.Summary = summary
		return err
	})
	g.Go(func() error {
		monthly, err := s.transactionService.MonthlySeries(userID, DefaultSeriesMonths, loc)
		d.Monthly = monthly
		return err
	})
	g.Go(func() error {
		breakdown, err := s.transactionService.ExpensesByCategory(userID, filter, loc)
		d.ExpensesByCategory = breakdown
		return err
	})
	g.Go(func() error {
		recent, err := s.transactionService.Transactions(userID, repository.TransactionFilter{
			Category: filter.Category,
			Limit:    recentTransactionsLimit,
		})
		d.RecentTransactions = recent
		return err
	})
	g.Go(func() error {
		goals, err := s.goalService.Goals(userID, repository.GoalSortDeadline)
		d.Goals = goals
		return err
	})
	g.Go(func() error {
		events, err := s.eventService.Today(gctx, userID, loc)
		d.TodayEvents = events
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return d, nil
}
