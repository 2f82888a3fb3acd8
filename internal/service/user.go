package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
)

type PasswordChangeInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Confirmation    string `json:"confirm_password"`
}

type UserService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	fileService       *FileService
	emailService      *EmailService
	hub               *realtime.Hub
}

func NewUserService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	fileService *FileService,
	emailService *EmailService,
	hub *realtime.Hub,
) *UserService {
	return &UserService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		fileService:       fileService,
		emailService:      emailService,
		hub:               hub,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		return nil, err
	}

	if s.fileService != nil {
		user.AvatarURL = s.fileService.AvatarURL(ctx, id)
	}

	return user, nil
}

// ChangePassword sets a new password. While the profile carries the
// must_change_password flag the current password is not asked for; the
// flag is cleared on success.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input PasswordChangeInput) error {
	err := validation.ValidatePasswordChange(input.NewPassword, input.Confirmation)
	if err != nil {
		return invalid(err)
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	profile, err := s.profileRepository.ByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	if !profile.MustChangePassword && user.HasPassword() {
		err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.CurrentPassword))
		if err != nil {
			return invalid(ErrInvalidCurrentPassword)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(userID, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if profile.MustChangePassword {
		err = s.profileRepository.SetMustChangePassword(userID, false)
		if err != nil {
			return fmt.Errorf("failed to clear password change flag: %w", err)
		}
		s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableProfiles, Op: realtime.OpUpdate, RecordID: profile.ID})
	}

	err = s.emailService.SendPasswordChangedEmail(ctx, user.Email, profile.FullName)
	if err != nil {
		slog.Warn("failed to send password changed email", "error", err, "user_id", userID)
	}

	slog.Info("password changed", "user_id", userID, "forced", profile.MustChangePassword)
	return nil
}
