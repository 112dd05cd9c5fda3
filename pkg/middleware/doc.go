// Package middleware provides HTTP middleware for token authentication,
// admin gating and login rate limiting.
package middleware
