package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
	"github.com/templui/finboard/internal/validation"
)

type AccountHandler struct {
	userService *service.UserService
	fileService *service.FileService
}

func NewAccountHandler(userService *service.UserService, fileService *service.FileService) *AccountHandler {
	return &AccountHandler{
		userService: userService,
		fileService: fileService,
	}
}

type meResponse struct {
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile"`
}

// Me returns the session user. The SPA checks profile.must_change_password
// and profile.role from here.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ui.JSON(w, http.StatusOK, meResponse{
		User:    ctxkeys.User(r.Context()),
		Profile: ctxkeys.Profile(r.Context()),
	})
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.PasswordChangeInput
	if !decodeJSON(w, r, &input) {
		return
	}

	err := h.userService.ChangePassword(r.Context(), user.ID, input)
	if err != nil {
		slog.Warn("password change failed", "error", err, "user_id", user.ID)
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type avatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, validation.AvatarMaxSize+maxBodyBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ui.Error(w, http.StatusRequestEntityTooLarge, validation.ErrAvatarTooLarge.Error(), "file_too_large")
			return
		}
		badRequest(w, "avatar file is required")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close uploaded file", "error", closeErr)
		}
	}()

	avatar, err := h.fileService.UploadAvatar(r.Context(), user.ID, file, header)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("avatar uploaded", "user_id", user.ID, "size", avatar.Size)
	ui.JSON(w, http.StatusCreated, avatarResponse{AvatarURL: h.fileService.URL(r.Context(), avatar)})
}

func (h *AccountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.fileService.DeleteAvatar(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
