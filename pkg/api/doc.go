// Package api implements the HTTP surface: account registration and
// login, profile management, and the book catalog. Pre-auth routes
// (register, login, Google sign-in, healthcheck) bypass token
// verification; everything else runs behind the auth middleware.
package api
