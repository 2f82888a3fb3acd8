package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidRole        = errors.New("role must be user or admin")
)

type CreateUserInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AdminService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	authService       *AuthService
	emailService      *EmailService
	defaultTimezone   string
}

func NewAdminService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	authService *AuthService,
	emailService *EmailService,
	defaultTimezone string,
) *AdminService {
	return &AdminService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		authService:       authService,
		emailService:      emailService,
		defaultTimezone:   defaultTimezone,
	}
}

// CreateUser provisions an account that must change its password on first
// sign in. Only callers whose profile role is admin may use it.
func (s *AdminService) CreateUser(ctx context.Context, caller *model.Profile, input CreateUserInput) (*model.User, *model.Profile, error) {
	if !caller.IsAdmin() {
		return nil, nil, ErrForbidden
	}

	user, profile, err := s.provision(input)
	if err != nil {
		return nil, nil, err
	}

	err = s.emailService.SendAccountCreatedEmail(ctx, user.Email, profile.FullName)
	if err != nil {
		slog.Warn("failed to send account created email", "error", err, "user_id", user.ID)
	}

	slog.Info("user created by admin", "user_id", user.ID, "admin_id", caller.UserID, "role", profile.Role)
	return user, profile, nil
}

// Bootstrap creates the first admin from the command line, bypassing the
// caller check. The account keeps the password it was created with.
func (s *AdminService) Bootstrap(input CreateUserInput) (*model.User, error) {
	input.Role = model.RoleAdmin

	user, profile, err := s.provision(input)
	if err != nil {
		return nil, err
	}

	err = s.profileRepository.SetMustChangePassword(user.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to clear password change flag: %w", err)
	}

	slog.Info("admin bootstrapped", "user_id", user.ID, "profile_id", profile.ID)
	return user, nil
}

func (s *AdminService) provision(input CreateUserInput) (*model.User, *model.Profile, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = validation.NormalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Role == "" {
		input.Role = model.RoleUser
	}

	err := validation.ValidateName(input.FullName)
	if err != nil {
		return nil, nil, invalid(err)
	}
	err = validation.ValidateEmail(input.Email)
	if err != nil {
		return nil, nil, invalid(err)
	}
	err = validation.ValidatePhone(input.Phone)
	if err != nil {
		return nil, nil, invalid(err)
	}
	err = validation.ValidatePassword(input.Password)
	if err != nil {
		return nil, nil, invalid(err)
	}
	if !model.ValidRole(input.Role) {
		return nil, nil, invalid(ErrInvalidRole)
	}

	hash, err := s.authService.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: &hash,
		CreatedAt:    now,
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, invalid(ErrEmailAlreadyExists)
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &model.Profile{
		UserID:             user.ID,
		FullName:           input.FullName,
		Role:               input.Role,
		MustChangePassword: true,
		Phone:              input.Phone,
		Timezone:           s.defaultTimezone,
		CreatedAt:          now,
	}

	err = s.profileRepository.Create(profile)
	if err != nil {
		// keep the email reusable
		delErr := s.userRepository.Delete(user.ID)
		if delErr != nil {
			slog.Error("failed to roll back user without profile", "error", delErr, "user_id", user.ID)
		}
		return nil, nil, fmt.Errorf("failed to create profile: %w", err)
	}

	user.PasswordHash = nil
	return user, profile, nil
}
