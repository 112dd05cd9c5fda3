package api

import (
	"errors"
	"net/http"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/storage"
)

func validateBookRequest(req *BookRequest) string {
	if req.Title == "" || req.Author == "" || req.PublicationYear == 0 {
		return "Provide title, author and publicationYear"
	}
	if !auth.ValidateName(req.Author) {
		return "Invalid author format"
	}
	if !auth.ValidatePositiveInt(req.PublicationYear) {
		return "Invalid publicationYear"
	}
	return ""
}

// createBook handles POST /books.
func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if reason := validateBookRequest(&req); reason != "" {
		httputil.WriteValidationError(w, reason)
		return
	}

	book := &storage.Book{Title: req.Title, Author: req.Author, Year: req.PublicationYear}
	if err := s.books.Create(r.Context(), book); err != nil {
		if errors.Is(err, storage.ErrDuplicateBook) {
			httputil.WriteBadRequest(w, "Book already exists")
			return
		}
		s.log(r).WithError(err).Error("failed to create book")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteCreated(w, book)
}

// listBooks handles GET /books?author=&publicationYear=. At least one
// filter is required.
func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	author := httputil.ParseQueryString(r, "author", "")
	year, err := httputil.ParseQueryInt64(r, "publicationYear", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid publicationYear")
		return
	}
	if author == "" && year == 0 {
		httputil.WriteBadRequest(w, "Provide author or publicationYear")
		return
	}
	if year != 0 && !auth.ValidatePositiveInt(year) {
		httputil.WriteBadRequest(w, "Invalid publicationYear")
		return
	}

	books, err := s.books.List(r.Context(), storage.BookFilter{Author: author, Year: year})
	if err != nil {
		s.log(r).WithError(err).Error("failed to list books")
		httputil.WriteInternalError(w)
		return
	}
	if books == nil {
		books = []*storage.Book{}
	}

	httputil.WriteSuccess(w, books)
}

// getBook handles GET /books/{id}.
func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	book, err := s.books.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Book not found")
			return
		}
		s.log(r).WithError(err).Error("failed to get book")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, book)
}

// updateBook handles PUT /books/{id}.
func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req BookRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if reason := validateBookRequest(&req); reason != "" {
		httputil.WriteValidationError(w, reason)
		return
	}

	book := &storage.Book{ID: id, Title: req.Title, Author: req.Author, Year: req.PublicationYear}
	if err := s.books.Update(r.Context(), book); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httputil.WriteNotFoundError(w, "Book not found")
		case errors.Is(err, storage.ErrDuplicateBook):
			httputil.WriteBadRequest(w, "Book already exists")
		default:
			s.log(r).WithError(err).Error("failed to update book")
			httputil.WriteInternalError(w)
		}
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Book updated"})
}

// deleteBook handles DELETE /books/{id}.
func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.books.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Book not found")
			return
		}
		s.log(r).WithError(err).Error("failed to delete book")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Book deleted"})
}
