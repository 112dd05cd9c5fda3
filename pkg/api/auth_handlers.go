package api

import (
	"errors"
	"net/http"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/middleware"
	"github.com/shelfd/shelfd/pkg/storage"
)

func (s *Server) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

// register handles POST /users/register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	s.registerUser(w, r, false)
}

// adminRegister handles POST /users/admin/register. Identical to
// register except the account is created with the admin role.
func (s *Server) adminRegister(w http.ResponseWriter, r *http.Request) {
	s.registerUser(w, r, true)
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	var req RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := auth.ValidateRegistration(req.Name, req.Email, req.Password, req.ConfirmPassword); err != nil {
		s.recordRegistration("invalid")
		httputil.WriteValidationError(w, err.Error())
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.recordRegistration("error")
		s.log(r).WithError(err).Error("failed to hash password")
		httputil.WriteInternalError(w)
		return
	}

	user := &auth.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		IsPublic:     req.IsPublic,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			s.recordRegistration("duplicate")
			httputil.WriteBadRequest(w, "Email already exists")
			return
		}
		s.recordRegistration("error")
		s.log(r).WithError(err).Error("failed to create user")
		httputil.WriteInternalError(w)
		return
	}

	token, _, err := s.issuer.Issue(r.Context(), user)
	if err != nil {
		s.recordRegistration("error")
		s.log(r).WithError(err).Error("failed to issue token after registration")
		httputil.WriteInternalError(w)
		return
	}

	s.recordRegistration("ok")
	s.log(r).WithField("user_id", user.ID).Info("user registered")
	httputil.WriteSuccess(w, TokenResponse{Token: token})
}

// login handles POST /users/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := auth.ValidateLogin(req.Email, req.Password); err != nil {
		s.recordLogin("invalid")
		httputil.WriteValidationError(w, err.Error())
		return
	}

	user, err := s.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		s.recordLogin("error")
		s.log(r).WithError(err).Error("failed to look up user at login")
		httputil.WriteInternalError(w)
		return
	}
	// The unknown-email and wrong-password rejections are identical so
	// the endpoint cannot be used to probe which emails exist.
	if user == nil || !s.hasher.Check(user.PasswordHash, req.Password) {
		s.recordLogin("denied")
		httputil.WriteUnauthorized(w, "Invalid email or password")
		return
	}

	token, _, err := s.issuer.Issue(r.Context(), user)
	if err != nil {
		s.recordLogin("error")
		s.log(r).WithError(err).Error("failed to issue token at login")
		httputil.WriteInternalError(w)
		return
	}

	s.recordLogin("ok")
	s.log(r).WithField("user_id", user.ID).Info("user logged in")
	httputil.WriteSuccess(w, TokenResponse{Token: token})
}

// logout handles POST /users/logout. The stored token is cleared, which
// revokes the presented one immediately.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteUnauthorized(w, "A token is required for authentication")
		return
	}

	if err := s.users.ClearCurrentToken(r.Context(), identity.UserID); err != nil {
		s.log(r).WithError(err).Error("failed to clear token at logout")
		httputil.WriteInternalError(w)
		return
	}

	s.log(r).WithField("user_id", identity.UserID).Info("user logged out")
	httputil.WriteSuccess(w, MessageResponse{Message: "Logged out"})
}
