package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleIssuer = "https://accounts.google.com"

// FederatedUser is what an identity provider tells us about the caller.
type FederatedUser struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Nonce         string
}

type FederatedProvider interface {
	LoginURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (*FederatedUser, error)
	Verify(ctx context.Context, rawIDToken string) (*FederatedUser, error)
}

type googleClaims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Verified bool   `json:"email_verified"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// Google signs users in with Google's OpenID Connect endpoints.
type Google struct {
	cfg      *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGoogle fetches Google's discovery document, so it needs network access.
func NewGoogle(ctx context.Context, google GoogleConfig) (*Google, error) {
	p, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			Endpoint:     endpoints.Google,
		},
		verifier: p.Verifier(&oidc.Config{ClientID: google.ClientID}),
	}, nil
}

func (g *Google) LoginURL(state, nonce string) string {
	return g.cfg.AuthCodeURL(state, oidc.Nonce(nonce))
}

func (g *Google) Exchange(ctx context.Context, code string) (*FederatedUser, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil &&
			(rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized) {
			return nil, ErrFederatedSignIn
		}
		return nil, fmt.Errorf("exchange: %w", err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: no id_token in response", ErrFederatedSignIn)
	}
	return g.Verify(ctx, raw)
}

func (g *Google) Verify(ctx context.Context, rawIDToken string) (*FederatedUser, error) {
	idTok, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFederatedSignIn, err)
	}

	var c googleClaims
	if err := idTok.Claims(&c); err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return &FederatedUser{
		Subject:       c.Sub,
		Email:         c.Email,
		EmailVerified: c.Verified,
		Name:          c.Name,
		Picture:       c.Picture,
		Nonce:         idTok.Nonce,
	}, nil
}
