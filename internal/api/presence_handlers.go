package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/presence"
)

const (
	wsMaxFrameBytes = 512
	wsPongWait      = 60 * time.Second
	wsPingInterval  = 25 * time.Second
	wsWriteWait     = 10 * time.Second
)

// handlePresenceSocket ties a tracker to the lifetime of one socket. Opening
// the socket activates the tracker, each frame is one signal and closing it
// disposes the tracker. Logging the session out deactivates it early.
func (s *Server) handlePresenceSocket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	if !s.reserveSocket() {
		writeError(w, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.trackers.Done()
		return
	}

	ps := &presenceSocket{
		conn: conn,
		tracker: presence.NewTracker(s.deps.Presence, presence.Options{
			WriteTimeout: s.deps.PresenceWriteTimeout,
			Logger:       s.deps.Logger.With("device_id", claims.DeviceID),
			Metrics:      s.deps.Metrics,
		}),
		accountID: claims.AccountID,
		deviceID:  claims.DeviceID,
		sessionID: claims.SessionID,
	}
	defer s.release(ps)
	if !s.activate(ps) {
		return
	}
	tracker := ps.tracker

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go pingLoop(ctx, conn)

	conn.SetReadLimit(wsMaxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var ev presence.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.deps.Logger.Debug("dropping malformed presence frame", "error", err)
			continue
		}
		sig, err := presence.ParseEvent(ev)
		if err != nil {
			s.deps.Logger.Debug("dropping unknown presence event", "error", err)
			continue
		}
		tracker.Handle(sig)
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// handlePresenceBeacon applies one event outside a socket, typically sent
// as the page unloads. The write is best effort: failures are logged and
// the client still gets 204.
func (s *Server) handlePresenceBeacon(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var ev presence.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}
	sig, err := presence.ParseEvent(ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}

	timeout := s.deps.PresenceWriteTimeout
	if timeout <= 0 {
		timeout = presence.DefaultWriteTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	status := sig.Status()
	if err := presence.Beacon(ctx, s.deps.Presence, claims.AccountID, sig); err != nil {
		s.deps.Metrics.PresenceWrites.WithLabelValues(string(status), "error").Inc()
		s.deps.Logger.Error("failed to update presence", "account_id", claims.AccountID, "trigger", sig.String(), "error", err)
	} else {
		s.deps.Metrics.PresenceWrites.WithLabelValues(string(status), "success").Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

type presenceView struct {
	Status   models.PresenceStatus `json:"status,omitempty"`
	LastSeen *time.Time            `json:"lastSeen,omitempty"`
}

// handleGetPresence returns another account's presence under the same
// gate and display flags as its profile.
func (s *Server) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	target, ok := targetParam(r, "userId")
	if !ok || target == nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a UUID")
		return
	}

	c := s.loadProfile(w, r, target)
	if c == nil {
		return
	}
	view, err := c.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not read presence")
		return
	}
	writeJSON(w, http.StatusOK, presenceView{Status: view.Status, LastSeen: view.LastSeen})
}
