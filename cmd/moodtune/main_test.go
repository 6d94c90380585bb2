package main

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmmd05/intento-proyecto-1/internal/appauth"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(context.Background(), append([]string{"moodtune", "--config", ""}, args...))
	return out.String(), err
}

func TestAuthURL(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")

	out, err := runApp(t, "auth-url", "--state", "xyz")
	if err != nil {
		t.Fatalf("auth-url error = %v", err)
	}

	u, err := url.Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("parsing output %q: %v", out, err)
	}
	if got := u.Query().Get("state"); got != "xyz" {
		t.Errorf("state = %q, want xyz", got)
	}
	if got := u.Query().Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q, want client-id", got)
	}
}

func TestAuthURL_MissingCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	if _, err := runApp(t, "auth-url"); err == nil {
		t.Error("auth-url expected error without credentials")
	}
}

func TestIssueToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")

	out, err := runApp(t, "issue-token", "--user", "ana", "--ttl", "1h")
	if err != nil {
		t.Fatalf("issue-token error = %v", err)
	}

	user, err := appauth.NewVerifier("dev-secret").Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if user != "ana" {
		t.Errorf("user = %q, want ana", user)
	}
}

func TestIssueToken_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := runApp(t, "issue-token", "--user", "ana"); err == nil {
		t.Error("issue-token expected error without secret")
	}
}

func TestMigrate(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "moodtune.db"))

	if _, err := runApp(t, "migrate"); err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	// Applying the schema twice is harmless.
	if _, err := runApp(t, "migrate"); err != nil {
		t.Fatalf("second migrate error = %v", err)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("postgres://user:hunter2@db:5432/moodtune")
	if strings.Contains(got, "hunter2") {
		t.Errorf("redactURL() = %q, leaks password", got)
	}
}
