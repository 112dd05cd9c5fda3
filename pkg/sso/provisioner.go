package sso

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/storage"
)

// ErrEmailNotVerified is returned when the upstream account's email
// address has not been verified by the provider.
var ErrEmailNotVerified = fmt.Errorf("email not verified by provider")

var nameFilter = regexp.MustCompile(`[^a-zA-Z\s]`)

// Provisioner finds or creates the local account for a federated login.
type Provisioner struct {
	users  *storage.UserStore
	hasher *auth.Hasher
}

// NewProvisioner creates a provisioner over users.
func NewProvisioner(users *storage.UserStore, hasher *auth.Hasher) *Provisioner {
	return &Provisioner{users: users, hasher: hasher}
}

// FindOrCreate returns the local account for claims, creating a
// federated account on first login. Federated accounts carry a random
// placeholder password hash so a password login can never succeed
// against them by guessing.
func (p *Provisioner) FindOrCreate(ctx context.Context, claims *Claims) (*auth.User, error) {
	if claims.Email == "" {
		return nil, fmt.Errorf("provider returned no email")
	}
	if !claims.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	existing, err := p.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	placeholder, err := randomPassword()
	if err != nil {
		return nil, err
	}
	hash, err := p.hasher.Hash(placeholder)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	user := &auth.User{
		Name:         cleanName(claims.Name),
		Email:        claims.Email,
		PasswordHash: hash,
		ImageURL:     claims.Picture,
		IsPublic:     true,
		Federated:    true,
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, nil
}

// cleanName strips characters the local name rules reject; Google
// display names can carry digits and punctuation.
func cleanName(name string) string {
	cleaned := strings.TrimSpace(nameFilter.ReplaceAllString(name, ""))
	if cleaned == "" {
		return "Reader"
	}
	return cleaned
}

// randomPassword returns a high-entropy throwaway credential.
func randomPassword() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate placeholder password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
