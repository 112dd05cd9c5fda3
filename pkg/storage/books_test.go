package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBooks(t *testing.T, store *BookStore) []*Book {
	t.Helper()

	books := []*Book{
		{Title: "The Left Hand of Darkness", Author: "Ursula K Le Guin", Year: 1969},
		{Title: "The Dispossessed", Author: "Ursula K Le Guin", Year: 1974},
		{Title: "Neuromancer", Author: "William Gibson", Year: 1984},
	}
	for _, b := range books {
		require.NoError(t, store.Create(context.Background(), b))
	}
	return books
}

func TestBookStoreCreateAndGet(t *testing.T) {
	store := NewBookStore(testDB(t))
	ctx := context.Background()

	book := &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984}
	require.NoError(t, store.Create(ctx, book))
	assert.NotZero(t, book.ID)
	assert.False(t, book.CreatedAt.IsZero())

	found, err := store.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neuromancer", found.Title)
	assert.Equal(t, int64(1984), found.Year)
}

func TestBookStoreDuplicate(t *testing.T) {
	store := NewBookStore(testDB(t))
	ctx := context.Background()

	book := &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984}
	require.NoError(t, store.Create(ctx, book))

	err := store.Create(ctx, &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984})
	assert.ErrorIs(t, err, ErrDuplicateBook)

	// same title by a different author is a different book
	err = store.Create(ctx, &Book{Title: "Neuromancer", Author: "Someone Else", Year: 1984})
	assert.NoError(t, err)
}

func TestBookStoreList(t *testing.T) {
	store := NewBookStore(testDB(t))
	seedBooks(t, store)
	ctx := context.Background()

	all, err := store.List(ctx, BookFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byAuthor, err := store.List(ctx, BookFilter{Author: "Ursula K Le Guin"})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	byYear, err := store.List(ctx, BookFilter{Year: 1984})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, "Neuromancer", byYear[0].Title)

	both, err := store.List(ctx, BookFilter{Author: "Ursula K Le Guin", Year: 1974})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "The Dispossessed", both[0].Title)

	none, err := store.List(ctx, BookFilter{Author: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookStoreUpdate(t *testing.T) {
	store := NewBookStore(testDB(t))
	books := seedBooks(t, store)
	ctx := context.Background()

	books[2].Year = 1985
	require.NoError(t, store.Update(ctx, books[2]))

	updated, err := store.Get(ctx, books[2].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1985), updated.Year)

	// collide with an existing entry
	books[1].Title = books[0].Title
	books[1].Year = books[0].Year
	assert.ErrorIs(t, store.Update(ctx, books[1]), ErrDuplicateBook)

	assert.ErrorIs(t, store.Update(ctx, &Book{ID: 999, Title: "X", Author: "Y", Year: 1}), ErrNotFound)
}

func TestBookStoreDelete(t *testing.T) {
	store := NewBookStore(testDB(t))
	books := seedBooks(t, store)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, books[0].ID))

	_, err := store.Get(ctx, books[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, books[0].ID), ErrNotFound)
}
