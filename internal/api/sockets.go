package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prudhvinik1/chatline/internal/presence"
)

// presenceSocket is one open presence connection and the tracker bound to
// the session that opened it.
type presenceSocket struct {
	conn      *websocket.Conn
	tracker   *presence.Tracker
	accountID uuid.UUID
	deviceID  uuid.UUID
	sessionID string
}

// reserveSocket counts a tracker before the upgrade so Drain cannot start
// waiting between the two. It fails once draining has begun.
func (s *Server) reserveSocket() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.trackers.Add(1)
	return true
}

// activate registers ps and binds its tracker to the session's account.
// It reports false when the server started draining after the reservation;
// the tracker then stays unbound and writes nothing.
func (s *Server) activate(ps *presenceSocket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.sockets[ps] = struct{}{}
	id := ps.accountID
	ps.tracker.SetIdentity(&id)
	return true
}

// release disposes ps. The tracker's final write runs on; the reservation
// is returned once it has finished.
func (s *Server) release(ps *presenceSocket) {
	s.mu.Lock()
	delete(s.sockets, ps)
	s.mu.Unlock()

	ps.conn.Close()
	ps.tracker.Close()
	go func() {
		ps.tracker.Wait()
		s.trackers.Done()
	}()
}

// endSockets deactivates every socket match selects: its tracker writes a
// final offline and ignores later frames, and the connection is closed.
func (s *Server) endSockets(match func(*presenceSocket) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for ps := range s.sockets {
		if !match(ps) {
			continue
		}
		ps.tracker.SetIdentity(nil)
		ps.conn.Close()
		n++
	}
	return n
}

func (s *Server) endSession(sessionID string) int {
	return s.endSockets(func(ps *presenceSocket) bool { return ps.sessionID == sessionID })
}

func (s *Server) endAccount(accountID uuid.UUID) int {
	return s.endSockets(func(ps *presenceSocket) bool { return ps.accountID == accountID })
}

func (s *Server) endDevice(accountID, deviceID uuid.UUID) int {
	return s.endSockets(func(ps *presenceSocket) bool {
		return ps.accountID == accountID && ps.deviceID == deviceID
	})
}

// Drain stops accepting presence sockets, closes the open ones and waits
// until their trackers have finished their final writes, or ctx is done.
// http.Server.Shutdown does not cover hijacked connections, so call this
// after it.
func (s *Server) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	for ps := range s.sockets {
		ps.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.trackers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
