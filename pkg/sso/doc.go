// Package sso implements federated sign-in with Google. A successful
// callback provisions a local account on first login and issues the
// same kind of token a password login does.
package sso
