package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
)

var (
	ErrInvalidTarget        = errors.New("target amount must be greater than zero")
	ErrInvalidCurrentAmount = errors.New("current amount must not be negative")
	ErrInvalidSort          = errors.New("sort must be recent, deadline or title")
)

type GoalInput struct {
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *time.Time      `json:"deadline"`
	Icon          string          `json:"icon"`
}

type GoalService struct {
	repo repository.GoalRepository
	hub  *realtime.Hub
	now  func() time.Time
}

func NewGoalService(repo repository.GoalRepository, hub *realtime.Hub) *GoalService {
	return &GoalService{
		repo: repo,
		hub:  hub,
		now:  time.Now,
	}
}

func (s *GoalService) Create(userID string, input GoalInput) (*model.GoalView, error) {
	err := normalizeGoal(&input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := &model.Goal{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         input.Title,
		TargetAmount:  input.TargetAmount,
		CurrentAmount: input.CurrentAmount,
		Deadline:      input.Deadline,
		Icon:          input.Icon,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.Create(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableGoals, Op: realtime.OpInsert, RecordID: goal.ID})
	view := goal.View(now)
	return &view, nil
}

func (s *GoalService) ByID(userID, goalID string) (*model.GoalView, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	view := goal.View(s.now())
	return &view, nil
}

// Goals lists the user's goals; sortBy is one of the repository.GoalSort* values.
func (s *GoalService) Goals(userID, sortBy string) ([]model.GoalView, error) {
	switch sortBy {
	case "", repository.GoalSortRecent, repository.GoalSortDeadline, repository.GoalSortTitle:
	default:
		return nil, invalid(ErrInvalidSort)
	}

	goals, err := s.repo.Goals(userID, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	now := s.now()
	views := make([]model.GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, g.View(now))
	}
	return views, nil
}

func (s *GoalService) Update(userID, goalID string, input GoalInput) (*model.GoalView, error) {
	err := normalizeGoal(&input)
	if err != nil {
		return nil, err
	}

	// Verify ownership
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	goal.Title = input.Title
	goal.TargetAmount = input.TargetAmount
	goal.CurrentAmount = input.CurrentAmount
	goal.Deadline = input.Deadline
	goal.Icon = input.Icon

	err = s.repo.Update(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableGoals, Op: realtime.OpUpdate, RecordID: goalID})
	view := goal.View(s.now())
	return &view, nil
}

func (s *GoalService) Delete(userID, goalID string) error {
	err := s.repo.Delete(userID, goalID)
	if err != nil {
		return err
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableGoals, Op: realtime.OpDelete, RecordID: goalID})
	return nil
}

func normalizeGoal(input *GoalInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Icon = strings.TrimSpace(input.Icon)

	err := validation.ValidateTitle(input.Title)
	if err != nil {
		return invalid(err)
	}
	if !input.TargetAmount.IsPositive() {
		return invalid(ErrInvalidTarget)
	}
	if input.CurrentAmount.IsNegative() {
		return invalid(ErrInvalidCurrentAmount)
	}
	if input.Icon == "" {
		input.Icon = model.DefaultGoalIcon
	}
	return nil
}
