package api

import (
	"errors"
	"net/http"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/middleware"
	"github.com/shelfd/shelfd/pkg/storage"
)

// listProfiles handles GET /profiles. Regular callers see public,
// active, non-admin accounts; admins additionally see private ones.
func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	users, err := s.users.List(r.Context(), false)
	if err != nil {
		s.log(r).WithError(err).Error("failed to list users")
		httputil.WriteInternalError(w)
		return
	}

	profiles := make([]auth.Profile, 0, len(users))
	for _, u := range users {
		if !u.IsActive || u.IsAdmin {
			continue
		}
		if !u.IsPublic && !identity.IsAdmin {
			continue
		}
		profiles = append(profiles, u.PublicProfile())
	}

	httputil.WriteSuccess(w, profiles)
}

// listAllProfiles handles GET /profiles/all (admin only): every account,
// full projection.
func (s *Server) listAllProfiles(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context(), false)
	if err != nil {
		s.log(r).WithError(err).Error("failed to list users")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, users)
}

// updateProfile handles PUT /profiles/me. The admin flag is not part of
// the request shape and cannot be changed here.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var req ProfileUpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := auth.ValidateProfileUpdate(req.Name, req.Email, req.Password, req.Phone); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	patch := storage.ProfilePatch{
		Name:     req.Name,
		Email:    req.Email,
		ImageURL: req.ImageURL,
		Bio:      req.Bio,
		Phone:    req.Phone,
		IsPublic: req.IsPublic,
	}
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			s.log(r).WithError(err).Error("failed to hash password")
			httputil.WriteInternalError(w)
			return
		}
		patch.PasswordHash = hash
	}

	if err := s.users.UpdateProfile(r.Context(), identity.UserID, patch); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateEmail):
			httputil.WriteBadRequest(w, "Email already exists")
		case errors.Is(err, storage.ErrNotFound):
			httputil.WriteNotFoundError(w, "Profile not found")
		default:
			s.log(r).WithError(err).Error("failed to update profile")
			httputil.WriteInternalError(w)
		}
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Profile updated"})
}

// updateStatus handles PATCH /profiles/status?id=&isActive=. A caller
// may change their own status; changing someone else's requires admin.
func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	targetID, err := httputil.ParseQueryInt64(r, "id", identity.UserID)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid id")
		return
	}
	if !auth.ValidatePositiveInt(targetID) {
		httputil.WriteBadRequest(w, "Invalid id")
		return
	}

	if r.URL.Query().Get("isActive") == "" {
		httputil.WriteBadRequest(w, "Provide isActive")
		return
	}
	active, err := httputil.ParseQueryBool(r, "isActive", true)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid isActive")
		return
	}

	if targetID != identity.UserID && !identity.IsAdmin {
		httputil.WriteForbidden(w, "Insufficient permissions")
		return
	}

	if err := s.users.SetActive(r.Context(), targetID, active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Profile not found")
			return
		}
		s.log(r).WithError(err).Error("failed to update status")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Status updated"})
}
