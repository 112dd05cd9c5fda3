package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedBookStoreServesFromCache(t *testing.T) {
	db := testDB(t)
	inner := NewBookStore(db)
	cached := NewCachedBookStore(inner, time.Minute, nil)
	ctx := context.Background()

	book := &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984}
	require.NoError(t, cached.Create(ctx, book))

	first, err := cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Write behind the cache's back; the cached listing should not see it.
	_, err = db.ExecContext(ctx, `INSERT INTO books (title, author, year) VALUES ('Sneaky', 'Nobody', 2000)`)
	require.NoError(t, err)

	second, err := cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestCachedBookStoreWriteInvalidates(t *testing.T) {
	cached := NewCachedBookStore(NewBookStore(testDB(t)), time.Minute, nil)
	ctx := context.Background()

	first := &Book{Title: "The Dispossessed", Author: "Ursula K Le Guin", Year: 1974}
	require.NoError(t, cached.Create(ctx, first))

	listed, err := cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	second := &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984}
	require.NoError(t, cached.Create(ctx, second))

	listed, err = cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, cached.Delete(ctx, second.ID))
	listed, err = cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCachedBookStoreGet(t *testing.T) {
	cached := NewCachedBookStore(NewBookStore(testDB(t)), time.Minute, nil)
	ctx := context.Background()

	book := &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984}
	require.NoError(t, cached.Create(ctx, book))

	got, err := cached.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neuromancer", got.Title)

	// second read comes from cache
	got, err = cached.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neuromancer", got.Title)

	book.Title = "Count Zero"
	book.Year = 1986
	require.NoError(t, cached.Update(ctx, book))

	got, err = cached.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Count Zero", got.Title)

	_, err = cached.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedBookStoreExpiry(t *testing.T) {
	db := testDB(t)
	cached := NewCachedBookStore(NewBookStore(db), 50*time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, cached.Create(ctx, &Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984}))

	listed, err := cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = db.ExecContext(ctx, `INSERT INTO books (title, author, year) VALUES ('Late', 'Arrival', 2001)`)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	listed, err = cached.List(ctx, BookFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
