package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Dune"}`))

	var dest struct {
		Title string `json:"title"`
	}
	require.NoError(t, ParseJSON(r, &dest))
	assert.Equal(t, "Dune", dest.Title)
}

func TestParseJSONInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))

	var dest map[string]string
	assert.Error(t, ParseJSON(r, &dest))
}

func TestParseJSONOrErrorWritesBadRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	var dest map[string]string
	ok := ParseJSONOrError(rec, r, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsePathInt64(t *testing.T) {
	router := mux.NewRouter()

	var got int64
	var gotErr error
	router.HandleFunc("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ParsePathInt64(r, "id")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books/notanumber", nil))
	assert.Error(t, gotErr)
}

func TestParsePathInt64Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/books", nil)
	_, err := ParsePathInt64(r, "id")
	assert.Error(t, err)
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/books?publicationYear=1965", nil)

	year, err := ParseQueryInt(r, "publicationYear", 0)
	require.NoError(t, err)
	assert.Equal(t, 1965, year)

	missing, err := ParseQueryInt(r, "absent", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, missing)

	r = httptest.NewRequest(http.MethodGet, "/books?publicationYear=soon", nil)
	_, err = ParseQueryInt(r, "publicationYear", 0)
	assert.Error(t, err)
}

func TestParseQueryInt64(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/profiles?id=9000000000", nil)

	id, err := ParseQueryInt64(r, "id", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9000000000), id)
}

func TestParseQueryString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/books?author=Herbert", nil)

	assert.Equal(t, "Herbert", ParseQueryString(r, "author", ""))
	assert.Equal(t, "fallback", ParseQueryString(r, "missing", "fallback"))
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/status?isActive=false", nil)

	val, err := ParseQueryBool(r, "isActive", true)
	require.NoError(t, err)
	assert.False(t, val)

	val, err = ParseQueryBool(r, "missing", true)
	require.NoError(t, err)
	assert.True(t, val)

	r = httptest.NewRequest(http.MethodGet, "/status?isActive=maybe", nil)
	_, err = ParseQueryBool(r, "isActive", false)
	assert.Error(t, err)
}
