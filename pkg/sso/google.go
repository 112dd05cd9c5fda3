package sso

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuerURL is Google's OIDC discovery issuer.
const GoogleIssuerURL = "https://accounts.google.com"

// Claims is the subset of the verified ID token the provisioner needs.
type Claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// IdentityProvider abstracts the upstream OIDC flow so handlers can be
// tested without network access.
type IdentityProvider interface {
	// AuthCodeURL returns the upstream authorization URL carrying state.
	AuthCodeURL(state string) string
	// Authenticate exchanges the callback code and returns the verified
	// identity claims.
	Authenticate(ctx context.Context, code string) (*Claims, error)
}

// GoogleProvider implements IdentityProvider against Google's OIDC
// endpoints.
type GoogleProvider struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewGoogleProvider discovers Google's OIDC configuration and prepares
// the OAuth2 exchange.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &GoogleProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// AuthCodeURL returns Google's authorization URL carrying state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Authenticate exchanges code for tokens and verifies the ID token.
func (p *GoogleProvider) Authenticate(ctx context.Context, code string) (*Claims, error) {
	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	return &claims, nil
}
