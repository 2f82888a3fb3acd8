package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/db/dbtest"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/service"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withSession(r *http.Request, role string) *http.Request {
	ctx := ctxkeys.WithUser(r.Context(), &model.User{ID: "u1", Email: "u1@example.com"})
	ctx = ctxkeys.WithProfile(ctx, &model.Profile{UserID: "u1", Role: role})
	return r.WithContext(ctx)
}

func TestRequireAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAuth(ok)(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required","code":"unauthorized"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RequireAuth(ok)(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil), model.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous", httptest.NewRequest(http.MethodPost, "/api/admin/users", nil), http.StatusUnauthorized},
		{"regular user", withSession(httptest.NewRequest(http.MethodPost, "/api/admin/users", nil), model.RoleUser), http.StatusForbidden},
		{"admin", withSession(httptest.NewRequest(http.MethodPost, "/api/admin/users", nil), model.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RequireAdmin(ok)(rec, tt.req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCSRFProtection(t *testing.T) {
	handler := CSRFProtection(ok)

	// safe request hands out the token
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(CSRFHeader)
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, token, cookies[0].Value)

	post := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(""))
	assert.Equal(t, http.StatusForbidden, post("wrong"))
	assert.Equal(t, http.StatusOK, post(token))

	// bearer clients have no ambient credentials to forge
	req := httptest.NewRequest(http.MethodDelete, "/api/goals/1", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	limited := NewRateLimiter(time.Hour, 2).Middleware(ok)

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		limited(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:5000"
	assert.Equal(t, "::1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS("https://app.example.com/")(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/goals", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), CSRFHeader)

	req = httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersUseNonce(t *testing.T) {
	var nonce string
	handler := NonceMiddleware(SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = GetNonce(r.Context())
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, nonce)
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "'nonce-"+nonce+"'")
	assert.Contains(t, csp, "default-src 'none'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	var seen string
	handler := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, "from-proxy")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "from-proxy", seen)
}

func TestAuthMiddleware(t *testing.T) {
	conn := dbtest.Open(t)
	users := repository.NewUserRepository(conn)
	profiles := repository.NewProfileRepository(conn)
	hub := realtime.NewHub()

	authService := service.NewAuthService(users, profiles, hub, "secret", false, time.Hour, "UTC")
	userService := service.NewUserService(users, profiles, nil, nil, hub)
	profileService := service.NewProfileService(profiles, hub, time.UTC)

	user := &model.User{ID: uuid.New().String(), Email: "session@example.com", CreatedAt: time.Now()}
	require.NoError(t, users.Create(user))
	require.NoError(t, profiles.Create(&model.Profile{UserID: user.ID, FullName: "Session User"}))

	token, _, err := authService.GenerateJWT(user)
	require.NoError(t, err)

	var got *model.Profile
	handler := Auth(authService, userService, profileService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.Profile(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.UserID)

	got = nil
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)

	got = nil
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Nil(t, got)
	assert.True(t, strings.Contains(rec.Header().Get("Set-Cookie"), service.AuthCookieName+"="))
}
