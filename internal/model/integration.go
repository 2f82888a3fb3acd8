package model

import (
	"time"

	"golang.org/x/oauth2"
)

const ProviderGoogle = "google"

// CalendarIntegration holds the Google Calendar credentials of one user.
// At most one row exists per user.
type CalendarIntegration struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken *string   `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (i *CalendarIntegration) HasRefreshToken() bool {
	return i.RefreshToken != nil && *i.RefreshToken != ""
}

// Usable reports whether the access token stays valid for more than buffer after now.
func (i *CalendarIntegration) Usable(now time.Time, buffer time.Duration) bool {
	if i.AccessToken == "" {
		return false
	}
	return i.ExpiresAt.Add(-buffer).After(now)
}

// RefreshGrant is a token carrying only the refresh token. Without an access
// token an oauth2.TokenSource always performs the refresh round trip, even
// while the stored token is still inside its validity window.
func (i *CalendarIntegration) RefreshGrant() *oauth2.Token {
	if !i.HasRefreshToken() {
		return nil
	}
	return &oauth2.Token{RefreshToken: *i.RefreshToken}
}
