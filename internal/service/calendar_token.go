package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/templui/finboard/internal/calendar"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

const (
	oauthStateIssuer = "finboard/calendar-oauth"
	refreshTimeout   = 15 * time.Second
	// Google answers without expires_in on some flows; tokens live one hour.
	DefaultTokenExpiresIn = 3599
)

var (
	ErrCalendarNotConfigured = errors.New("google calendar integration is not configured")
	ErrCalendarNotConnected  = errors.New("google calendar is not connected")
	ErrReconnectRequired     = errors.New("google calendar access was revoked or expired, reconnect required")
	ErrTokenRefreshFailed    = errors.New("could not refresh the google calendar token")
	ErrInvalidOAuthState     = errors.New("invalid or expired oauth state")
	ErrCodeExchangeFailed    = errors.New("google rejected the authorization code")
)

// CalendarStatus is the connection state shown on the integrations page.
// Tokens are never part of it.
type CalendarStatus struct {
	Connected       bool       `json:"connected"`
	NeedsReconnect  bool       `json:"needs_reconnect"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ConnectedAt     *time.Time `json:"connected_at,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

// oauthStateClaims binds a consent round trip to the user who started it.
type oauthStateClaims struct {
	ReturnTo string `json:"return_to"`
	jwt.RegisteredClaims
}

type CalendarTokenConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint defaults to Google's.
	Endpoint      oauth2.Endpoint
	StateSecret   string
	StateExpiry   time.Duration
	RefreshBuffer time.Duration
	AppURL        string
	// DefaultReturnPath is used when a connect request has no acceptable return URL.
	DefaultReturnPath string
}

// CalendarTokenService owns the Google OAuth credentials of every user:
// consent, code exchange, storage and refresh. Refresh tokens never leave it.
type CalendarTokenService struct {
	oauth         *oauth2.Config
	repo          repository.IntegrationRepository
	hub           *realtime.Hub
	stateSecret   []byte
	stateExpiry   time.Duration
	buffer        time.Duration
	appURL        *url.URL
	defaultReturn string
	refreshes     singleflight.Group
	now           func() time.Time
}

func NewCalendarTokenService(c CalendarTokenConfig, repo repository.IntegrationRepository, hub *realtime.Hub) (*CalendarTokenService, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, ErrCalendarNotConfigured
	}
	if c.StateSecret == "" {
		return nil, fmt.Errorf("%w: missing state secret", ErrCalendarNotConfigured)
	}

	appURL, err := url.Parse(c.AppURL)
	if err != nil || appURL.Scheme == "" || appURL.Host == "" {
		return nil, fmt.Errorf("%w: invalid app url %q", ErrCalendarNotConfigured, c.AppURL)
	}

	endpoint := c.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	if c.StateExpiry <= 0 {
		c.StateExpiry = 10 * time.Minute
	}
	if c.RefreshBuffer <= 0 {
		c.RefreshBuffer = 5 * time.Minute
	}
	if c.DefaultReturnPath == "" {
		c.DefaultReturnPath = "/integrations"
	}

	return &CalendarTokenService{
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{calendar.Scope},
			Endpoint:     endpoint,
		},
		repo:          repo,
		hub:           hub,
		stateSecret:   []byte(c.StateSecret),
		stateExpiry:   c.StateExpiry,
		buffer:        c.RefreshBuffer,
		appURL:        appURL,
		defaultReturn: appURL.ResolveReference(&url.URL{Path: c.DefaultReturnPath}).String(),
		now:           time.Now,
	}, nil
}

// AuthURL builds the consent URL for userID. The state is a short-lived
// signed token, so the callback never trusts an identity sent by the browser.
func (s *CalendarTokenService) AuthURL(userID, returnTo string) (string, error) {
	now := s.now()
	claims := oauthStateClaims{
		ReturnTo: s.safeReturnURL(returnTo),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    oauthStateIssuer,
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateExpiry)),
		},
	}

	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.stateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}

	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// HandleCallback verifies state, exchanges code and stores the tokens. It
// returns the user id from the state and where to send the browser.
func (s *CalendarTokenService) HandleCallback(ctx context.Context, code, state string) (string, string, error) {
	claims, err := s.verifyState(state)
	if err != nil {
		return "", "", err
	}
	if code == "" {
		return "", "", fmt.Errorf("%w: missing code", ErrCodeExchangeFailed)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return "", "", fmt.Errorf("%w: %s", ErrCodeExchangeFailed, re.ErrorCode)
		}
		return "", "", fmt.Errorf("token exchange failed: %w", err)
	}

	err = s.StoreToken(claims.Subject, token)
	if err != nil {
		return "", "", err
	}

	slog.Info("google calendar connected", "user_id", claims.Subject)
	return claims.Subject, withQuery(claims.ReturnTo, "calendar_connected", "true"), nil
}

func (s *CalendarTokenService) verifyState(state string) (*oauthStateClaims, error) {
	if state == "" {
		return nil, ErrInvalidOAuthState
	}

	token, err := jwt.ParseWithClaims(state, &oauthStateClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.stateSecret, nil
	},
		jwt.WithIssuer(oauthStateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOAuthState, err)
	}

	claims, ok := token.Claims.(*oauthStateClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidOAuthState
	}

	claims.ReturnTo = s.safeReturnURL(claims.ReturnTo)
	return claims, nil
}

// AccessToken returns a token valid for more than the refresh buffer,
// refreshing it first when needed.
func (s *CalendarTokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	integration, err := s.repo.ByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrationNotFound) {
			return "", ErrCalendarNotConnected
		}
		return "", fmt.Errorf("failed to get calendar integration: %w", err)
	}

	if integration.Usable(s.now(), s.buffer) {
		return integration.AccessToken, nil
	}

	if !integration.HasRefreshToken() {
		return "", ErrReconnectRequired
	}

	// Concurrent callers for one user share a single refresh round trip. It
	// runs detached from the first caller so joined callers survive its cancel.
	result := s.refreshes.DoChan(userID, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(refreshCtx, integration)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *CalendarTokenService) refresh(ctx context.Context, integration *model.CalendarIntegration) (string, error) {
	token, err := s.oauth.TokenSource(ctx, integration.RefreshGrant()).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && (re.Response == nil || re.Response.StatusCode < http.StatusInternalServerError) {
			slog.Warn("google refused calendar token refresh", "user_id", integration.UserID, "error_code", re.ErrorCode)
			return "", fmt.Errorf("%w: %s", ErrReconnectRequired, re.ErrorCode)
		}
		slog.Error("calendar token refresh failed", "error", err, "user_id", integration.UserID)
		return "", fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenRefreshFailed)
	}

	err = s.StoreToken(integration.UserID, token)
	if err != nil {
		// the new token is valid even if we could not keep it
		slog.Error("failed to persist refreshed calendar token", "error", err, "user_id", integration.UserID)
	}

	slog.Info("calendar token refreshed", "user_id", integration.UserID)
	return token.AccessToken, nil
}

// StoreToken upserts the user's tokens. An empty refresh token keeps the
// stored one, since Google only sends it on the first consent.
func (s *CalendarTokenService) StoreToken(userID string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return invalid(errors.New("access token is required"))
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = s.now().Add(DefaultTokenExpiresIn * time.Second)
	}

	integration := &model.CalendarIntegration{
		UserID:      userID,
		AccessToken: token.AccessToken,
		ExpiresAt:   expiry,
	}
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		integration.RefreshToken = &refresh
	}

	err := s.repo.Upsert(integration)
	if err != nil {
		return fmt.Errorf("failed to save calendar integration: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableIntegrations, Op: realtime.OpUpdate})
	return nil
}

// SaveToken persists tokens obtained by another sign-in flow. A caller may
// only store tokens for itself.
func (s *CalendarTokenService) SaveToken(callerID, userID, accessToken, refreshToken string, expiresIn int) error {
	if userID != "" && userID != callerID {
		return ErrForbidden
	}
	if expiresIn <= 0 {
		expiresIn = DefaultTokenExpiresIn
	}

	return s.StoreToken(callerID, &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       s.now().Add(time.Duration(expiresIn) * time.Second),
	})
}

func (s *CalendarTokenService) Status(userID string) (*CalendarStatus, error) {
	integration, err := s.repo.ByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrationNotFound) {
			return &CalendarStatus{}, nil
		}
		return nil, fmt.Errorf("failed to get calendar integration: %w", err)
	}

	return &CalendarStatus{
		Connected:       true,
		NeedsReconnect:  !integration.Usable(s.now(), s.buffer) && !integration.HasRefreshToken(),
		ExpiresAt:       &integration.ExpiresAt,
		ConnectedAt:     &integration.CreatedAt,
		LastRefreshedAt: &integration.UpdatedAt,
	}, nil
}

func (s *CalendarTokenService) Disconnect(userID string) error {
	err := s.repo.Delete(userID)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrationNotFound) {
			return ErrCalendarNotConnected
		}
		return fmt.Errorf("failed to delete calendar integration: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableIntegrations, Op: realtime.OpDelete})
	slog.Info("google calendar disconnected", "user_id", userID)
	return nil
}

// safeReturnURL keeps same-origin absolute URLs and site-relative paths.
func (s *CalendarTokenService) safeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.defaultReturn
	}

	u, err := url.Parse(raw)
	if err != nil {
		return s.defaultReturn
	}

	if !u.IsAbs() {
		// reject scheme-relative (//evil.com) and relative paths
		if u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(raw, "//") {
			return s.defaultReturn
		}
		return s.appURL.ResolveReference(u).String()
	}

	if !strings.EqualFold(u.Scheme, s.appURL.Scheme) || !strings.EqualFold(u.Host, s.appURL.Host) {
		return s.defaultReturn
	}
	return u.String()
}

func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
