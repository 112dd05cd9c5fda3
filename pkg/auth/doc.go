// Package auth implements the authentication core for shelfd: credential
// validation, bcrypt password hashing, JWT issuance, and hybrid token
// verification with store-backed revocation.
//
// # Overview
//
// shelfd enforces a single active session per user. Each login, registration,
// or OAuth callback signs a fresh short-lived JWT and persists it as the
// user's current token, which invalidates every previously issued token for
// that user regardless of its cryptographic expiry. Verification is therefore
// a two-step check: the signature and expiry of the presented token, then a
// store lookup confirming the token is still the user's current one.
// Signatures alone cannot express logout or revocation before natural
// expiry, so both checks are required.
//
// # Key Components
//
// Validator: pure input checks with human-readable reasons
//
//	if err := auth.ValidateRegistration(name, email, password, confirm); err != nil {
//		// *auth.ValidationError, maps to 400
//	}
//
// Hasher: bcrypt with a configurable cost factor
//
//	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
//	hash, err := hasher.Hash(password)
//
// Issuer / Verifier: token lifecycle
//
//	token, expiresAt, err := issuer.Issue(ctx, user)
//	ident, err := verifier.Verify(ctx, token) // Identity{UserID, Email, IsAdmin}
package auth
