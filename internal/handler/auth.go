package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/templui/finboard/internal/calendar"
	"github.com/templui/finboard/internal/config"
	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie   = "oauth_state"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	signInRedirectPath = "/dashboard"
)

type AuthHandler struct {
	authService       *service.AuthService
	profileService    *service.ProfileService
	calendarTokens    *service.CalendarTokenService
	googleOAuthConfig *oauth2.Config
	userInfoURL       string
	appURL            string
}

// NewAuthHandler sets up password and Google sign-in. Google sign-in also asks
// for calendar access; calendarTokens may be nil when the integration is off.
func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService, calendarTokens *service.CalendarTokenService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		calendarTokens: calendarTokens,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				calendar.Scope,
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		appURL:      strings.TrimSuffix(cfg.AppURL, "/"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *model.User    `json:"user"`
	Profile   *model.Profile `json:"profile"`
}

// Login sets the session cookie and also returns the token for bearer clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		slog.Warn("password login failed", "error", err, "email", req.Email)
		respondError(w, r, err)
		return
	}

	profile, err := h.profileService.ByUserID(user.ID)
	if err != nil {
		respondError(w, r, fmt.Errorf("failed to get profile: %w", err))
		return
	}

	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		respondError(w, r, fmt.Errorf("failed to generate JWT: %w", err))
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	user.PasswordHash = nil

	slog.Info("user logged in with password", "user_id", user.ID)
	ui.JSON(w, http.StatusOK, sessionResponse{Token: token, ExpiresAt: expiry, User: user, Profile: profile})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuthConfig.ClientID == "" {
		respondError(w, r, service.ErrCalendarNotConfigured)
		return
	}

	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback signs the user in and keeps the calendar tokens Google
// granted with the sign-in.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		h.signInFailed(w, r, http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code", "google_error", r.URL.Query().Get("error"))
		h.signInFailed(w, r, http.StatusBadRequest)
		return
	}

	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.signInFailed(w, r, http.StatusBadGateway)
		return
	}

	info, err := h.fetchUserInfo(r, token)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.signInFailed(w, r, http.StatusBadGateway)
		return
	}

	user, err := h.authService.AuthenticateOAuth(info.Email, info.Name, model.ProviderGoogle)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", info.Email)
		h.signInFailed(w, r, http.StatusUnauthorized)
		return
	}

	if h.calendarTokens != nil {
		err = h.calendarTokens.StoreToken(user.ID, token)
		if err != nil {
			slog.Warn("failed to store calendar tokens from sign-in", "error", err, "user_id", user.ID)
		}
	}

	jwtToken, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		h.signInFailed(w, r, http.StatusInternalServerError)
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, expiry)

	slog.Info("user logged in with google oauth", "user_id", user.ID)
	http.Redirect(w, r, h.appURL+signInRedirectPath, http.StatusSeeOther)
}

type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) fetchUserInfo(r *http.Request, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.googleOAuthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("google account has no email")
	}
	return &info, nil
}

func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, status int) {
	ui.Render(w, r, status, ui.ResultPage(ui.ResultProps{
		Title:    "Sign-in failed",
		Message:  "We could not sign you in with Google. Please try again.",
		Link:     h.appURL + "/login",
		LinkText: "Back to login",
	}))
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
