package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const (
	AuthCookieName = "auth_token"
	sessionIssuer  = "finboard/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordlessLogin  = errors.New("this account signs in with Google")
	ErrInvalidEmail       = validation.ErrEmailInvalid
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// SessionClaims is the payload of a session JWT.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	hub               *realtime.Hub
	jwtSecret         string
	isProduction      bool
	jwtExpiry         time.Duration
	defaultTimezone   string
}

func NewAuthService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	hub *realtime.Hub,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
	defaultTimezone string,
) *AuthService {
	return &AuthService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		hub:               hub,
		jwtSecret:         jwtSecret,
		isProduction:      isProduction,
		jwtExpiry:         jwtExpiry,
		defaultTimezone:   defaultTimezone,
	}
}

func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordlessLogin
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateJWT issues a session token and returns it with its expiry.
func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)

	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiry, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidSession
	}

	return claims, nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthenticateOAuth signs in a Google account, creating the user and profile
// on first login.
func (s *AuthService) AuthenticateOAuth(email, name, provider string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalid(ErrInvalidEmail)
	}

	user, err := s.userRepository.ByEmail(email)
	if err == nil {
		slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", provider)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	now := time.Now()
	user = &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: now,
		// password_hash is NULL for OAuth accounts
	}

	err = s.userRepository.Create(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &model.Profile{
		UserID:    user.ID,
		FullName:  strings.TrimSpace(name),
		Role:      model.RoleUser,
		Timezone:  s.defaultTimezone,
		CreatedAt: now,
	}

	err = s.profileRepository.Create(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: user.ID, Table: realtime.TableProfiles, Op: realtime.OpInsert, RecordID: profile.ID})

	slog.Info("new OAuth user created", "user_id", user.ID, "provider", provider)
	return user, nil
}
