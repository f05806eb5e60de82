package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/repositories"
	"github.com/prudhvinik1/chatline/internal/services"
	"github.com/prudhvinik1/chatline/internal/utils"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	DeviceID   *uuid.UUID `json:"deviceId,omitempty"`
	DeviceName string     `json:"deviceName"`
	DeviceType string     `json:"deviceType"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	AccountID uuid.UUID `json:"accountId"`
	DeviceID  uuid.UUID `json:"deviceId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	account, err := s.deps.Auth.Register(r.Context(), services.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	switch {
	case errors.Is(err, services.ErrEmailExists):
		writeError(w, http.StatusConflict, "email_exists", err.Error())
		return
	case errors.Is(err, utils.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "weak_password", err.Error())
		return
	case err != nil:
		s.deps.Logger.Error("failed to register account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    account.ID.String(),
		"email": account.Email,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	resp, err := s.deps.Auth.Login(r.Context(), services.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
		UserAgent:  r.UserAgent(),
	})
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
		return
	case errors.Is(err, services.ErrDeviceMismatch):
		writeError(w, http.StatusForbidden, "device_mismatch", err.Error())
		return
	case err != nil:
		s.deps.Logger.Error("failed to log in", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		AccountID: resp.AccountID,
		DeviceID:  resp.DeviceID,
	})
}

// handleLogout ends the caller's session. Presence sockets opened with it
// are deactivated, so the account goes offline for that session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.deps.Auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.deps.Logger.Warn("failed to log out", "error", err)
	}
	if n := s.endSession(claims.SessionID); n > 0 {
		s.deps.Logger.Debug("presence sockets ended", "session_id", claims.SessionID, "count", n)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleLogoutAll ends every session of the caller's account.
func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.deps.Auth.LogoutAll(r.Context(), bearerToken(r)); err != nil {
		s.deps.Logger.Error("failed to log out all sessions", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "logout failed")
		return
	}
	s.endAccount(claims.AccountID)
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	account, err := s.deps.Auth.Account(r.Context(), claims.AccountID)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "account_not_found", "account does not exist")
		return
	}
	if err != nil {
		s.deps.Logger.Error("failed to get account", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load account")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	devices, err := s.deps.Auth.ListDevices(r.Context(), claims.AccountID)
	if err != nil {
		s.deps.Logger.Error("failed to list devices", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not list devices")
		return
	}
	if devices == nil {
		devices = []*models.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleRevokeDevice revokes a device, logs out its sessions and
// deactivates their presence sockets.
func (s *Server) handleRevokeDevice(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	deviceID, err := uuid.Parse(chi.URLParam(r, "deviceId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "deviceId must be a UUID")
		return
	}

	_, err = s.deps.Auth.RevokeDevice(r.Context(), claims.AccountID, deviceID)
	if errors.Is(err, services.ErrDeviceNotFound) {
		writeError(w, http.StatusNotFound, "device_not_found", "no such device")
		return
	}
	if err != nil {
		s.deps.Logger.Error("failed to revoke device", "device_id", deviceID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not revoke device")
		return
	}
	s.endDevice(claims.AccountID, deviceID)
	w.WriteHeader(http.StatusNoContent)
}
