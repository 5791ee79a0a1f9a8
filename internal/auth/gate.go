// Package auth implements the authorization gate for the assistant bridge:
// the auth-code redirect handshake that links the remote service to this
// home, and bearer-token validation on every protocol request.
//
// Issued tokens are HS256-signed JWTs whose grant rows persist in SQLite so
// they can be revoked and expired independently of the signature check. A
// statically configured access token is also accepted when set.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/gray-assist/internal/infrastructure/logging"
)

// purgeInterval is how often expired grants are removed from the store.
const purgeInterval = 10 * time.Minute

// defaultTokenTTL is the issued token lifetime when the config leaves it unset.
const defaultTokenTTL = time.Hour

// tokenIssuer is the iss claim on issued tokens.
const tokenIssuer = "grayassist"

// Config holds the gate's settings.
type Config struct {
	// ProjectID, when set, restricts redirect URIs to paths ending in
	// "/r/<project_id>".
	ProjectID string

	// ClientID is the only client identifier Authorize accepts.
	ClientID string

	// AccessToken, when non-empty, is a static token accepted by Validate
	// and returned by Authorize instead of issuing a grant.
	AccessToken string

	// TokenSecret signs issued tokens.
	TokenSecret string

	// TokenTTL is the issued token lifetime.
	TokenTTL time.Duration
}

// Gate validates bearer credentials and drives the redirect handshake.
type Gate struct {
	cfg    Config
	repo   GrantRepository
	logger *logging.Logger
}

// NewGate creates a gate. repo may be nil only when a static access token
// is configured.
func NewGate(cfg Config, repo GrantRepository, logger *logging.Logger) *Gate {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &Gate{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth"),
	}
}

// Authorize runs the auth-code handshake: it verifies the client and
// redirect URI, issues an access token, and returns the redirect URL with
// the token and the caller's opaque state appended. The state is passed
// through unmodified so the caller can use it for CSRF protection.
func (g *Gate) Authorize(ctx context.Context, redirectURI, clientID, state string) (string, error) {
	if clientID != g.cfg.ClientID {
		return "", fmt.Errorf("%w: %q", ErrInvalidClient, clientID)
	}

	target, err := g.parseRedirectURI(redirectURI)
	if err != nil {
		return "", err
	}

	token, err := g.issueToken(ctx, redirectURI)
	if err != nil {
		return "", err
	}

	q := target.Query()
	q.Set("code", token)
	q.Set("state", state)
	target.RawQuery = q.Encode()

	g.logger.Info("authorization granted", "client_id", clientID)
	return target.String(), nil
}

// Validate checks a bearer token and returns the matching grant.
// Absent, malformed, unknown, and expired tokens all return ErrUnauthorized;
// there is no refresh path — expired callers go back through Authorize.
func (g *Gate) Validate(ctx context.Context, bearer string) (*AccessGrant, error) {
	if bearer == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	if g.cfg.AccessToken != "" &&
		subtle.ConstantTimeCompare([]byte(bearer), []byte(g.cfg.AccessToken)) == 1 {
		return &AccessGrant{ClientID: g.cfg.ClientID, Static: true}, nil
	}

	if g.repo == nil {
		return nil, fmt.Errorf("%w: unknown token", ErrUnauthorized)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(bearer, claims, func(t *jwt.Token) (any, error) {
		return []byte(g.cfg.TokenSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	grant, err := g.repo.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return nil, fmt.Errorf("%w: revoked token", ErrUnauthorized)
		}
		return nil, fmt.Errorf("looking up grant: %w", err)
	}

	// The hash check ties the stored grant to this exact token, not just
	// a matching jti claim.
	if grant.TokenHash != HashToken(bearer) {
		return nil, fmt.Errorf("%w: token mismatch", ErrUnauthorized)
	}
	if grant.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: expired token", ErrUnauthorized)
	}

	return grant, nil
}

// PurgeLoop removes expired grants periodically until the context is
// cancelled.
func (g *Gate) PurgeLoop(ctx context.Context) {
	if g.repo == nil {
		return
	}
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.repo.DeleteExpired(ctx)
			if err != nil {
				g.logger.Warn("purging expired grants failed", "error", err)
			} else if n > 0 {
				g.logger.Info("purged expired grants", "count", n)
			}
		}
	}
}

// parseRedirectURI validates the redirect target. With a project ID
// configured, the path must end in "/r/<project_id>" — the assistant's
// redirect endpoint for this project.
func (g *Gate) parseRedirectURI(redirectURI string) (*url.URL, error) {
	target, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRedirect, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRedirect, redirectURI)
	}
	if g.cfg.ProjectID != "" && !strings.HasSuffix(target.Path, "/r/"+g.cfg.ProjectID) {
		return nil, fmt.Errorf("%w: %q does not match project", ErrInvalidRedirect, redirectURI)
	}
	return target, nil
}

// issueToken returns the static token when configured, otherwise signs a
// fresh JWT and persists its grant.
func (g *Gate) issueToken(ctx context.Context, redirectURI string) (string, error) {
	if g.cfg.AccessToken != "" {
		return g.cfg.AccessToken, nil
	}
	if g.repo == nil {
		return "", fmt.Errorf("issuing token: no grant repository configured")
	}

	now := time.Now()
	grant := &AccessGrant{
		ClientID:    g.cfg.ClientID,
		RedirectURI: redirectURI,
		ExpiresAt:   now.Add(g.cfg.TokenTTL),
	}

	// Create first so the generated grant ID can become the jti claim.
	if err := g.repo.Create(ctx, grant); err != nil {
		return "", fmt.Errorf("storing grant: %w", err)
	}

	claims := jwt.RegisteredClaims{
		ID:        grant.ID,
		Subject:   grant.ClientID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(g.cfg.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	if err := g.repo.UpdateTokenHash(ctx, grant.ID, HashToken(signed)); err != nil {
		return "", fmt.Errorf("binding token to grant: %w", err)
	}

	return signed, nil
}
