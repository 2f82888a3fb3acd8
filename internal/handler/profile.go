package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// Update applies a partial update; absent fields are left unchanged.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	profile, err := h.profileService.Update(user.ID, input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("profile updated", "user_id", user.ID)
	ui.JSON(w, http.StatusOK, profile)
}
