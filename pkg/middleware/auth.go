package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/contextkeys"
	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/observability"
)

// AuthMiddleware verifies bearer tokens and attaches the caller's
// identity to the request context.
type AuthMiddleware struct {
	verifier *auth.Verifier
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates an auth middleware using verifier.
// metrics may be nil.
func NewAuthMiddleware(verifier *auth.Verifier, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, metrics: metrics}
}

// ExtractToken pulls the credential from a request. Authorization:
// Bearer is preferred; the legacy x-access-token header is still
// honored for older clients.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return strings.TrimSpace(header)
	}
	return r.Header.Get("x-access-token")
}

func (m *AuthMiddleware) record(outcome string) {
	if m.metrics != nil {
		m.metrics.TokenVerificationsTotal.WithLabelValues(outcome).Inc()
	}
}

// Handler rejects requests whose token fails verification.
//
// Responses follow the token state: no token at all and revoked or
// superseded tokens get 401 (the client should log in), while malformed,
// badly signed and expired tokens get 403.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.verifier.Verify(r.Context(), ExtractToken(r))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenRequired):
				m.record("missing")
				httputil.WriteUnauthorized(w, "A token is required for authentication")
			case errors.Is(err, auth.ErrTokenExpired):
				m.record("expired")
				httputil.WriteForbidden(w, "Token expired")
			case errors.Is(err, auth.ErrLoginAgain):
				m.record("revoked")
				httputil.WriteUnauthorized(w, "Session ended, please login again")
			case errors.Is(err, auth.ErrAccessDenied):
				m.record("invalid")
				httputil.WriteForbidden(w, "Access denied")
			default:
				m.record("error")
				httputil.WriteInternalError(w)
			}
			return
		}

		m.record("ok")
		next.ServeHTTP(w, r.WithContext(contextkeys.WithIdentity(r.Context(), identity)))
	})
}

// GetIdentity returns the verified identity attached to the request, or
// nil when the request did not pass the auth middleware.
func GetIdentity(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(contextkeys.IdentityKey).(*auth.Identity)
	return identity
}

// RequireAdmin rejects requests whose verified identity is not an
// admin. It must run after AuthMiddleware.Handler.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r)
		if identity == nil {
			httputil.WriteUnauthorized(w, "A token is required for authentication")
			return
		}
		if !identity.IsAdmin {
			httputil.WriteForbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
