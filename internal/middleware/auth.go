package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

// Auth resolves the session from an "Authorization: Bearer" header or the
// auth cookie and adds user + profile to the context. Requests without a
// valid session continue anonymously.
func Auth(authService *service.AuthService, userService *service.UserService, profileService *service.ProfileService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			// drop a bad cookie so the browser stops sending it
			reject := func() {
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
			}

			claims, err := authService.VerifyJWT(token)
			if err != nil {
				reject()
				return
			}

			user, err := userService.ByID(r.Context(), claims.UserID)
			if err != nil {
				reject()
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			profile, err := profileService.ByUserID(user.ID)
			if err != nil {
				reject()
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithProfile(ctx, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken prefers the bearer header. The bool reports whether the token came from the cookie.
func sessionToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r); ok {
		return token, false
	}
	cookie, err := r.Cookie(service.AuthCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth answers 401 for anonymous requests
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil || ctxkeys.Profile(r.Context()) == nil {
			ui.Error(w, http.StatusUnauthorized, "authentication required", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin answers 403 unless the caller's profile role is admin.
// A valid session alone is not enough.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !ctxkeys.Profile(r.Context()).IsAdmin() {
			ui.Error(w, http.StatusForbidden, "admin access required", "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
