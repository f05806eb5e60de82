// Package api is the HTTP surface: the guarded page route table, the JSON
// API and the presence socket.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prudhvinik1/chatline/internal/access"
	"github.com/prudhvinik1/chatline/internal/observability"
	"github.com/prudhvinik1/chatline/internal/profile"
	"github.com/prudhvinik1/chatline/internal/repositories"
	"github.com/prudhvinik1/chatline/internal/services"
)

// AvatarUploader stores a profile photo and returns its URL.
type AvatarUploader interface {
	Put(ctx context.Context, accountID uuid.UUID, contentType string, body io.Reader) (string, error)
}

// StoreCheck reports whether a backing store answers.
type StoreCheck func(ctx context.Context) error

type Deps struct {
	Auth     *services.AuthService
	Profiles repositories.ProfileRepository
	Contacts repositories.ContactRepository
	Presence repositories.PresenceRepository
	Gate     *access.Gate
	// Avatars is nil when object storage is not configured.
	Avatars AvatarUploader
	// StoreChecks feed the connectivity banner, keyed by store name.
	StoreChecks map[string]StoreCheck

	PresenceWriteTimeout time.Duration
	Logger               *slog.Logger
	Metrics              *observability.Metrics
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	deps     Deps
	upgrader websocket.Upgrader

	mu       sync.Mutex
	draining bool
	sockets  map[*presenceSocket]struct{}
	// trackers counts presence trackers whose writes may still be running.
	trackers sync.WaitGroup
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.Discard()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(nil)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sockets: make(map[*presenceSocket]struct{}),
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.authenticate)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	// Pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/chat", http.StatusFound)
	})
	r.Get("/login", s.handlePage("login"))
	r.Group(func(r chi.Router) {
		r.Use(requirePageAuth)
		r.Get("/chat", s.handlePage("chat"))
		r.Get("/settings", s.handlePage("settings"))
		r.Get("/users", s.handlePage("users"))
		r.Get("/contacts", s.handlePage("contacts"))
		r.Get("/group", s.handlePage("group"))
		r.Get("/profile/{userId}", s.handlePage("profile"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Put("/settings/theme", s.handleSetTheme)

		r.Group(func(r chi.Router) {
			r.Use(requireAPIAuth)
			r.Post("/auth/logout", s.handleLogout)
			r.Post("/auth/logout-all", s.handleLogoutAll)

			r.Get("/account", s.handleGetAccount)
			r.Get("/devices", s.handleListDevices)
			r.Delete("/devices/{deviceId}", s.handleRevokeDevice)

			r.Get("/profile", s.handleGetProfile)
			r.Get("/profile/{userId}", s.handleGetProfile)
			r.Put("/profile", s.handleSaveProfile)
			r.Put("/profile/photo", s.handleUploadPhoto)

			r.Get("/contacts", s.handleListContacts)
			r.Post("/contacts", s.handleAddContact)
			r.Delete("/contacts/{memberId}", s.handleRemoveContact)

			r.Get("/presence/ws", s.handlePresenceSocket)
			r.Post("/presence/events", s.handlePresenceBeacon)
			r.Get("/presence/{userId}", s.handleGetPresence)
		})
	})

	return r
}

func (s *Server) profileDeps() profile.Deps {
	return profile.Deps{
		Profiles: s.deps.Profiles,
		Gate:     s.deps.Gate,
		Presence: s.deps.Presence,
		Logger:   s.deps.Logger,
		Metrics:  s.deps.Metrics,
	}
}
