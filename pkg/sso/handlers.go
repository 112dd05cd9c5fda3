package sso

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/observability"
)

const (
	stateCookieName = "shelfd_oauth_state"
	stateTTL        = 10 * time.Minute
)

// Handlers serves the federated sign-in endpoints.
type Handlers struct {
	provider    IdentityProvider
	provisioner *Provisioner
	issuer      *auth.Issuer
	logger      *observability.Logger
	metrics     *observability.Metrics
}

// NewHandlers creates the SSO handlers. metrics may be nil.
func NewHandlers(provider IdentityProvider, provisioner *Provisioner, issuer *auth.Issuer, logger *observability.Logger, metrics *observability.Metrics) *Handlers {
	return &Handlers{
		provider:    provider,
		provisioner: provisioner,
		issuer:      issuer,
		logger:      logger,
		metrics:     metrics,
	}
}

// RegisterRoutes registers the Google sign-in routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/google", h.initiateLogin).Methods("GET")
	router.HandleFunc("/auth/google/callback", h.handleCallback).Methods("GET")
}

func (h *Handlers) record(outcome string) {
	if h.metrics != nil {
		h.metrics.OAuthCallbacksTotal.WithLabelValues(outcome).Inc()
	}
}

// initiateLogin sets the state nonce cookie and redirects upstream.
func (h *Handlers) initiateLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		h.logger.WithError(err).Error("failed to generate oauth state")
		httputil.WriteInternalError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// handleCallback verifies the state nonce, exchanges the code,
// provisions the account and issues a token.
func (h *Handlers) handleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.record("state_mismatch")
		httputil.WriteBadRequest(w, "Missing login state, start over")
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})

	state := r.URL.Query().Get("state")
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(cookie.Value)) != 1 {
		h.record("state_mismatch")
		httputil.WriteBadRequest(w, "Login state mismatch, start over")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.record("denied")
		httputil.WriteBadRequest(w, "Missing authorization code")
		return
	}

	claims, err := h.provider.Authenticate(r.Context(), code)
	if err != nil {
		h.record("exchange_failed")
		h.logger.WithError(err).Warn("google authentication failed")
		httputil.WriteUnauthorized(w, "Google sign-in failed")
		return
	}

	user, err := h.provisioner.FindOrCreate(r.Context(), claims)
	if err != nil {
		if errors.Is(err, ErrEmailNotVerified) {
			h.record("unverified_email")
			httputil.WriteForbidden(w, "Email address is not verified with Google")
			return
		}
		h.record("provision_failed")
		h.logger.WithError(err).Error("failed to provision federated user")
		httputil.WriteInternalError(w)
		return
	}

	token, _, err := h.issuer.Issue(r.Context(), user)
	if err != nil {
		h.record("issue_failed")
		h.logger.WithError(err).Error("failed to issue token after google sign-in")
		httputil.WriteInternalError(w)
		return
	}

	h.record("ok")
	h.logger.WithField("user_id", user.ID).Info("federated login")
	httputil.WriteSuccess(w, map[string]string{"token": token})
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
