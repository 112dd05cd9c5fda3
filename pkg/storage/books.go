package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Book is a catalog entry. Title, author and year together identify a
// book; the store rejects exact duplicates.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Year      int64     `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

// BookFilter narrows List results. Zero-valued fields match everything.
type BookFilter struct {
	Author string
	Year   int64
}

// BookStore persists the book catalog.
type BookStore struct {
	db *sql.DB
}

// NewBookStore creates a book store over db.
func NewBookStore(db *sql.DB) *BookStore {
	return &BookStore{db: db}
}

// Create inserts a new book and fills in its ID and creation time.
// Returns ErrDuplicateBook when the same title, author and year already
// exist.
func (s *BookStore) Create(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (title, author, year)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, book.Title, book.Author, book.Year).
		Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBook
		}
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// Get returns the book with the given ID, or ErrNotFound.
func (s *BookStore) Get(ctx context.Context, id int64) (*Book, error) {
	query := `SELECT id, title, author, year, created_at FROM books WHERE id = $1`

	var b Book
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &b, nil
}

// List returns books matching filter, newest first.
func (s *BookStore) List(ctx context.Context, filter BookFilter) ([]*Book, error) {
	var conditions []string
	var args []any

	if filter.Author != "" {
		args = append(args, filter.Author)
		conditions = append(conditions, fmt.Sprintf("author = $%d", len(args)))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}

	query := `SELECT id, title, author, year, created_at FROM books`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}
	return books, nil
}

// Update replaces the book's title, author and year. Returns
// ErrNotFound if the book does not exist and ErrDuplicateBook if the
// update would collide with an existing entry.
func (s *BookStore) Update(ctx context.Context, book *Book) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET title = $1, author = $2, year = $3 WHERE id = $4`,
		book.Title, book.Author, book.Year, book.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBook
		}
		return fmt.Errorf("failed to update book: %w", err)
	}
	return requireRow(result)
}

// Delete removes the book with the given ID, or returns ErrNotFound.
func (s *BookStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return requireRow(result)
}
