// Package storage provides the PostgreSQL-backed persistence layer for
// user accounts and books.
//
// The stores speak plain database/sql with $1-style placeholders, which
// keeps them runnable against an in-memory SQLite database in tests. The
// book store can be wrapped with an expiring in-process cache for the
// read-heavy listing endpoints.
package storage
