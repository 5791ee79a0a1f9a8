package auth

import "time"

// AccessGrant is an authorization issued through the auth-code handshake.
// Static indicates the configured always-valid token rather than a stored
// grant row.
type AccessGrant struct {
	ID          string
	ClientID    string
	RedirectURI string
	TokenHash   string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Static      bool
}

// Expired reports whether the grant has passed its expiry.
// Static grants never expire.
func (g *AccessGrant) Expired(now time.Time) bool {
	if g.Static {
		return false
	}
	return now.After(g.ExpiresAt)
}
