package handler

import (
	"net/http"
	"strings"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

type DashboardHandler struct {
	dashboardService   *service.DashboardService
	transactionService *service.TransactionService
	profileService     *service.ProfileService
}

func NewDashboardHandler(dashboardService *service.DashboardService, transactionService *service.TransactionService, profileService *service.ProfileService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService:   dashboardService,
		transactionService: transactionService,
		profileService:     profileService,
	}
}

func summaryFilter(r *http.Request) service.SummaryFilter {
	q := r.URL.Query()
	category := strings.ToLower(strings.TrimSpace(q.Get("category")))
	if category == "all" {
		category = ""
	}
	return service.SummaryFilter{
		Period:   strings.ToLower(strings.TrimSpace(q.Get("period"))),
		Category: category,
	}
}

// Dashboard takes period (weekly, monthly, yearly, all) and category.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))

	dashboard, err := h.dashboardService.Dashboard(r.Context(), ctxkeys.UserID(r.Context()), summaryFilter(r), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))

	summary, err := h.transactionService.Summary(ctxkeys.UserID(r.Context()), summaryFilter(r), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, summary)
}

// MonthlySeries takes months, default service.DefaultSeriesMonths.
func (h *DashboardHandler) MonthlySeries(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", service.DefaultSeriesMonths)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))

	series, err := h.transactionService.MonthlySeries(ctxkeys.UserID(r.Context()), months, loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, series)
}

func (h *DashboardHandler) ExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))

	breakdown, err := h.transactionService.ExpensesByCategory(ctxkeys.UserID(r.Context()), summaryFilter(r), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, breakdown)
}
