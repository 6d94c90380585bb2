package appauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	token, err := NewIssuer("secret").Issue("user-123", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := NewVerifier("secret").Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "user-123" {
		t.Errorf("Verify() = %q, want user-123", got)
	}
}

func TestVerify_Table(t *testing.T) {
	secret := []byte("secret")
	now := time.Now()

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return s
	}

	expired := NewIssuer("secret")
	expired.now = func() time.Time { return now.Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("u1", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other"), &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}})},
		{name: "expired", token: expiredToken},
		{name: "no expiry", token: sign(jwt.SigningMethodHS256, secret, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})},
		{name: "no subject", token: sign(jwt.SigningMethodHS256, secret, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}})},
		{name: "HS512", token: sign(jwt.SigningMethodHS512, secret, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}})},
	}

	v := NewVerifier("secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); err == nil {
				t.Error("Verify() expected error")
			}
		})
	}
}

func TestIssue_EmptyUser(t *testing.T) {
	if _, err := NewIssuer("secret").Issue("", time.Hour); err == nil {
		t.Error("Issue(\"\") expected error")
	}
}

func TestMiddleware(t *testing.T) {
	token, err := NewIssuer("secret").Issue("ana", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "valid", header: "Bearer " + token, wantStatus: http.StatusOK, wantUser: "ana"},
		{name: "lowercase scheme", header: "bearer " + token, wantStatus: http.StatusOK, wantUser: "ana"},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	v := NewVerifier("secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("UserID() = %q, want %q", gotUser, tt.wantUser)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decoding body: %v", err)
				}
				if body["error"] != "unauthorized" {
					t.Errorf("error = %q, want unauthorized", body["error"])
				}
			}
		})
	}
}
