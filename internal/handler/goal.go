package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

type GoalHandler struct {
	goalService    *service.GoalService
	profileService *service.ProfileService
}

func NewGoalHandler(goalService *service.GoalService, profileService *service.ProfileService) *GoalHandler {
	return &GoalHandler{
		goalService:    goalService,
		profileService: profileService,
	}
}

type goalRequest struct {
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      string          `json:"deadline"`
	Icon          string          `json:"icon"`
}

func (h *GoalHandler) input(w http.ResponseWriter, r *http.Request) (service.GoalInput, bool) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return service.GoalInput{}, false
	}

	deadline, err := optionalDay(req.Deadline, h.profileService.Location(ctxkeys.Profile(r.Context())))
	if err != nil {
		badRequest(w, "deadline must be YYYY-MM-DD or RFC 3339")
		return service.GoalInput{}, false
	}

	return service.GoalInput{
		Title:         req.Title,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      deadline,
		Icon:          req.Icon,
	}, true
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = repository.GoalSortRecent
	}

	goals, err := h.goalService.Goals(ctxkeys.UserID(r.Context()), sortBy)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.input(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.Create(ctxkeys.UserID(r.Context()), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.input(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
