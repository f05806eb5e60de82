package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/repositories"
)

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	contacts, err := s.deps.Contacts.ListByOwner(r.Context(), claims.AccountID)
	if err != nil {
		s.deps.Logger.Error("failed to list contacts", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not list contacts")
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var body struct {
		MemberID uuid.UUID `json:"memberId"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.MemberID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "memberId is required")
		return
	}
	if body.MemberID == claims.AccountID {
		writeError(w, http.StatusBadRequest, "invalid_request", "cannot add yourself")
		return
	}

	if _, err := s.deps.Profiles.GetByAccountID(r.Context(), body.MemberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found", "no such user")
			return
		}
		s.deps.Logger.Error("failed to look up contact", "member_id", body.MemberID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not add contact")
		return
	}

	if err := s.deps.Contacts.Add(r.Context(), claims.AccountID, body.MemberID); err != nil {
		s.deps.Logger.Error("failed to add contact", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not add contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveContact(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	member, ok := targetParam(r, "memberId")
	if !ok || member == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "memberId must be a UUID")
		return
	}

	err := s.deps.Contacts.Remove(r.Context(), claims.AccountID, *member)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "contact_not_found", "not in contacts")
		return
	}
	if err != nil {
		s.deps.Logger.Error("failed to remove contact", "account_id", claims.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not remove contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
