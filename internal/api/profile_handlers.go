package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/profile"
	"github.com/prudhvinik1/chatline/internal/repositories"
	"github.com/prudhvinik1/chatline/internal/storage"
)

const deniedMessage = "This profile is private. Only authorized contacts can view it."

type deniedBody struct {
	Error   string             `json:"error"`
	Reason  profile.DenyReason `json:"reason"`
	Message string             `json:"message"`
}

// targetParam reads {userId}; an absent parameter means the caller's own
// profile and a malformed one is reported as not ok.
func targetParam(r *http.Request, name string) (*uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// loadProfile runs a controller through loading and writes the denied
// response when access is refused. It returns nil in that case.
func (s *Server) loadProfile(w http.ResponseWriter, r *http.Request, target *uuid.UUID) *profile.Controller {
	claims := claimsFrom(r.Context())
	c := profile.NewController(s.profileDeps(), claims.AccountID, target)
	if err := c.Load(r.Context()); err != nil {
		s.deps.Logger.Error("failed to load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load profile")
		return nil
	}
	if c.State() == profile.StateDenied {
		writeJSON(w, http.StatusForbidden, deniedBody{
			Error:   "profile_denied",
			Reason:  c.DenyReason(),
			Message: deniedMessage,
		})
		return nil
	}
	return c
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	target, ok := targetParam(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a UUID")
		return
	}

	c := s.loadProfile(w, r, target)
	if c == nil {
		return
	}
	view, err := c.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not render profile")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSaveProfile walks the caller's own profile through viewing, editing
// and back. Fields missing from the body keep their stored values.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	c := s.loadProfile(w, r, nil)
	if c == nil {
		return
	}
	if err := c.BeginEdit(); err != nil {
		writeError(w, http.StatusConflict, "not_editable", err.Error())
		return
	}
	var decodeErr error
	_ = c.Edit(func(draft *models.ProfileEdit) {
		decodeErr = json.Unmarshal(raw, draft)
	})
	if decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	if err := c.Save(r.Context()); err != nil {
		if errors.Is(err, profile.ErrInvalidEdit) {
			writeError(w, http.StatusBadRequest, "invalid_profile", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "save_failed", "profile could not be saved")
		return
	}

	view, err := c.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not render profile")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if s.deps.Avatars == nil {
		writeError(w, http.StatusNotImplemented, "avatars_disabled", "photo upload is not configured")
		return
	}
	claims := claimsFrom(r.Context())

	body := http.MaxBytesReader(w, r.Body, storage.MaxAvatarBytes)
	url, err := s.deps.Avatars.Put(r.Context(), claims.AccountID, r.Header.Get("Content-Type"), body)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_image", err.Error())
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "image_too_large", "photo exceeds the size limit")
		return
	}
	if err != nil {
		s.deps.Logger.Error("failed to upload avatar", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusBadGateway, "upload_failed", "photo could not be stored")
		return
	}

	if err := s.deps.Profiles.SetPhotoURL(r.Context(), claims.AccountID, url); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found", "profile does not exist")
			return
		}
		s.deps.Logger.Error("failed to set photo url", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "photo could not be saved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"photoURL": url})
}
