package handler

import (
	"net/http"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// CreateUser is also behind RequireAdmin; the service checks the role again.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input service.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	user, profile, err := h.adminService.CreateUser(r.Context(), ctxkeys.Profile(r.Context()), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusCreated, meResponse{User: user, Profile: profile})
}
