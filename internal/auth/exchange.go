package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// TokenSet is the result of a successful code exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
	IssuedAt     time.Time
}

// ExchangeError describes a failed token exchange. Status is zero when no
// usable HTTP response was received. Body holds the provider error code when
// one was sent, otherwise the raw response body.
type ExchangeError struct {
	Status int
	Body   string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Exchange trades an authorization code for a TokenSet. It is not retried.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	ctx, cancel := context.WithTimeout(ctx, a.exchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, toExchangeError(err)
	}
	if tok.AccessToken == "" {
		return nil, &ExchangeError{Err: errors.New("response missing access_token")}
	}

	ts := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		IssuedAt:     time.Now(),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	return ts, nil
}

func toExchangeError(err error) *ExchangeError {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &ExchangeError{Err: err}
	}

	xe := &ExchangeError{Body: string(re.Body), Err: err}
	if re.Response != nil {
		xe.Status = re.Response.StatusCode
	}
	if re.ErrorCode != "" {
		xe.Body = re.ErrorCode
	}
	return xe
}

// Revoke asks Spotify for a fresh token with refreshToken in the background
// and discards the result. Spotify has no revocation endpoint, so this only
// exercises the grant; failures are logged.
func (a *Authenticator) Revoke(refreshToken string) {
	if refreshToken == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.revokeTimeout)
		defer cancel()
		if err := a.refresh(ctx, refreshToken); err != nil {
			a.logger.Warn("revoke refresh failed", "err", err)
		}
	}()
}

func (a *Authenticator) refresh(ctx context.Context, refreshToken string) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	if _, err := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token(); err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}
	return nil
}
