package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-assist/internal/infrastructure/logging"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testGate(t *testing.T, cfg Config) (*Gate, GrantRepository) {
	t.Helper()
	repo := NewGrantRepository(testDB(t))
	return NewGate(cfg, repo, testLogger()), repo
}

func TestGate_AuthorizeRedirect(t *testing.T) {
	gate, _ := testGate(t, Config{
		ProjectID:   "hasstest-1234",
		ClientID:    "helloworld",
		TokenSecret: testSecret,
		TokenTTL:    time.Hour,
	})

	redirect, err := gate.Authorize(context.Background(),
		"https://oauth-redirect.example.com/r/hasstest-1234", "helloworld", "random1234")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("redirect URL unparseable: %v", err)
	}
	if u.Host != "oauth-redirect.example.com" {
		t.Errorf("redirect host = %q, want oauth-redirect.example.com", u.Host)
	}
	if u.Query().Get("code") == "" {
		t.Error("redirect should carry a code parameter")
	}
	if got := u.Query().Get("state"); got != "random1234" {
		t.Errorf("state = %q, want %q", got, "random1234")
	}
}

func TestGate_AuthorizeRejectsWrongClient(t *testing.T) {
	gate, _ := testGate(t, Config{
		ClientID:    "helloworld",
		TokenSecret: testSecret,
	})

	_, err := gate.Authorize(context.Background(),
		"https://example.com/r/proj", "intruder", "state")
	if !errors.Is(err, ErrInvalidClient) {
		t.Errorf("Authorize() error = %v, want ErrInvalidClient", err)
	}
}

func TestGate_AuthorizeRejectsBadRedirect(t *testing.T) {
	gate, _ := testGate(t, Config{
		ProjectID:   "hasstest-1234",
		ClientID:    "helloworld",
		TokenSecret: testSecret,
	})
	ctx := context.Background()

	cases := []struct {
		name string
		uri  string
	}{
		{"relative", "/just/a/path"},
		{"empty", ""},
		{"wrong project", "https://example.com/r/other-project"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gate.Authorize(ctx, tc.uri, "helloworld", "state")
			if !errors.Is(err, ErrInvalidRedirect) {
				t.Errorf("Authorize(%q) error = %v, want ErrInvalidRedirect", tc.uri, err)
			}
		})
	}
}

func TestGate_IssuedTokenRoundTrip(t *testing.T) {
	gate, _ := testGate(t, Config{
		ClientID:    "helloworld",
		TokenSecret: testSecret,
		TokenTTL:    time.Hour,
	})
	ctx := context.Background()

	redirect, err := gate.Authorize(ctx, "https://example.com/callback", "helloworld", "s1")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	u, _ := url.Parse(redirect)
	token := u.Query().Get("code")

	grant, err := gate.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if grant.ClientID != "helloworld" {
		t.Errorf("ClientID = %q, want helloworld", grant.ClientID)
	}
	if grant.Static {
		t.Error("issued grant should not be static")
	}
	if !strings.HasPrefix(grant.ID, "ag-") {
		t.Errorf("grant ID = %q, want ag- prefix", grant.ID)
	}
}

func TestGate_ValidateRejectsGarbage(t *testing.T) {
	gate, _ := testGate(t, Config{
		ClientID:    "helloworld",
		TokenSecret: testSecret,
	})
	ctx := context.Background()

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		if _, err := gate.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Validate(%q) error = %v, want ErrUnauthorized", token, err)
		}
	}
}

func TestGate_ValidateRejectsRevokedGrant(t *testing.T) {
	gate, repo := testGate(t, Config{
		ClientID:    "helloworld",
		TokenSecret: testSecret,
		TokenTTL:    time.Hour,
	})
	ctx := context.Background()

	redirect, err := gate.Authorize(ctx, "https://example.com/callback", "helloworld", "s")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	u, _ := url.Parse(redirect)
	token := u.Query().Get("code")

	grant, err := gate.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate() before revocation error = %v", err)
	}
	if err := repo.Delete(ctx, grant.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := gate.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Validate() after revocation error = %v, want ErrUnauthorized", err)
	}
}

func TestGate_ValidateRejectsForeignSignature(t *testing.T) {
	issuer, _ := testGate(t, Config{
		ClientID:    "helloworld",
		TokenSecret: strings.Repeat("x", 32),
		TokenTTL:    time.Hour,
	})
	verifier, _ := testGate(t, Config{
		ClientID:    "helloworld",
		TokenSecret: testSecret,
	})
	ctx := context.Background()

	redirect, err := issuer.Authorize(ctx, "https://example.com/callback", "helloworld", "s")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	u, _ := url.Parse(redirect)
	token := u.Query().Get("code")

	if _, err := verifier.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Validate() with wrong secret error = %v, want ErrUnauthorized", err)
	}
}

func TestGate_StaticToken(t *testing.T) {
	gate := NewGate(Config{
		ClientID:    "helloworld",
		AccessToken: "superdoublesecret",
		TokenSecret: testSecret,
	}, nil, testLogger())
	ctx := context.Background()

	redirect, err := gate.Authorize(ctx, "https://example.com/callback", "helloworld", "s")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	u, _ := url.Parse(redirect)
	if got := u.Query().Get("code"); got != "superdoublesecret" {
		t.Errorf("code = %q, want configured static token", got)
	}

	grant, err := gate.Validate(ctx, "superdoublesecret")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !grant.Static {
		t.Error("static token should yield a static grant")
	}

	if _, err := gate.Validate(ctx, "wrongtoken"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Validate(wrong token) error = %v, want ErrUnauthorized", err)
	}
}

func TestAccessGrant_Expired(t *testing.T) {
	now := time.Now()

	fresh := &AccessGrant{ExpiresAt: now.Add(time.Minute)}
	if fresh.Expired(now) {
		t.Error("grant expiring in the future should not be expired")
	}

	stale := &AccessGrant{ExpiresAt: now.Add(-time.Minute)}
	if !stale.Expired(now) {
		t.Error("grant past its expiry should be expired")
	}

	static := &AccessGrant{Static: true}
	if static.Expired(now) {
		t.Error("static grant should never expire")
	}
}
