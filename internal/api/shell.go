package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	themeCookie  = "theme"
	defaultTheme = "light"
)

// Connectivity drives the client's offline banner.
type Connectivity struct {
	Online         bool              `json:"online"`
	StoreAvailable bool              `json:"storeAvailable"`
	Checks         map[string]string `json:"checks,omitempty"`
}

// Shell describes a page for the client to render.
type Shell struct {
	Route        string            `json:"route"`
	Params       map[string]string `json:"params,omitempty"`
	User         *ShellUser        `json:"user,omitempty"`
	Theme        string            `json:"theme"`
	Connectivity Connectivity      `json:"connectivity"`
}

type ShellUser struct {
	ID string `json:"id"`
}

func (s *Server) handlePage(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shell := Shell{
			Route:        route,
			Theme:        themeFrom(r),
			Connectivity: s.connectivity(r.Context()),
		}
		if userID := chi.URLParam(r, "userId"); userID != "" {
			shell.Params = map[string]string{"userId": userID}
		}
		if claims := claimsFrom(r.Context()); claims != nil {
			shell.User = &ShellUser{ID: claims.AccountID.String()}
		}
		writeJSON(w, http.StatusOK, shell)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.connectivity(r.Context()))
}

func (s *Server) connectivity(ctx context.Context) Connectivity {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	c := Connectivity{Online: true, StoreAvailable: true, Checks: make(map[string]string, len(s.deps.StoreChecks))}
	for name, check := range s.deps.StoreChecks {
		if err := check(ctx); err != nil {
			c.StoreAvailable = false
			c.Checks[name] = err.Error()
			continue
		}
		c.Checks[name] = "ok"
	}
	return c
}

func themeFrom(r *http.Request) string {
	if c, err := r.Cookie(themeCookie); err == nil && (c.Value == "light" || c.Value == "dark") {
		return c.Value
	}
	return defaultTheme
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &body); err != nil || (body.Theme != "light" && body.Theme != "dark") {
		writeError(w, http.StatusBadRequest, "invalid_theme", "theme must be light or dark")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    body.Theme,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
