package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/observability"
)

type fakeProvider struct {
	claims  *Claims
	authErr error
	seen    string
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Authenticate(_ context.Context, code string) (*Claims, error) {
	f.seen = code
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.claims, nil
}

func newTestHandlers(t *testing.T, provider IdentityProvider) (*Handlers, *mux.Router) {
	t.Helper()

	users := testUserStore(t)
	hasher := auth.NewHasher(bcrypt.MinCost)
	issuer := auth.NewIssuer([]byte("sso-test-secret"), time.Minute, users)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	h := NewHandlers(provider, NewProvisioner(users, hasher), issuer, logger, nil)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return h, router
}

func TestInitiateLoginRedirects(t *testing.T) {
	_, router := newTestHandlers(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "accounts.google.com")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, stateCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.Contains(t, location, url.QueryEscape(cookie.Value))
}

func TestCallbackIssuesToken(t *testing.T) {
	provider := &fakeProvider{claims: googleClaims()}
	_, router := newTestHandlers(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nonce&code=auth-code", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "nonce"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth-code", provider.seen)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestCallbackMissingStateCookie(t *testing.T) {
	_, router := newTestHandlers(t, &fakeProvider{claims: googleClaims()})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nonce&code=auth-code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackStateMismatch(t *testing.T) {
	_, router := newTestHandlers(t, &fakeProvider{claims: googleClaims()})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=wrong&code=auth-code", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "nonce"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "state mismatch")
}

func TestCallbackMissingCode(t *testing.T) {
	_, router := newTestHandlers(t, &fakeProvider{claims: googleClaims()})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nonce", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "nonce"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackExchangeFailure(t *testing.T) {
	provider := &fakeProvider{authErr: fmt.Errorf("upstream says no")}
	_, router := newTestHandlers(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nonce&code=bad-code", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "nonce"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// upstream detail must not leak
	assert.NotContains(t, rec.Body.String(), "upstream says no")
}

func TestCallbackUnverifiedEmail(t *testing.T) {
	claims := googleClaims()
	claims.EmailVerified = false
	_, router := newTestHandlers(t, &fakeProvider{claims: claims})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nonce&code=auth-code", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "nonce"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
