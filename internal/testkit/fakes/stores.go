// Package fakes holds in-memory repository fakes for tests.
package fakes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/repositories"
)

// ProfileStore is an in-memory ProfileRepository.
type ProfileStore struct {
	mu       sync.Mutex
	Profiles map[uuid.UUID]models.Profile
	// GetErr and UpdateErr, when set, are returned by the matching calls.
	GetErr    error
	UpdateErr error
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{Profiles: make(map[uuid.UUID]models.Profile)}
}

func (s *ProfileStore) Create(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = time.Now()
	s.Profiles[p.AccountID] = *p
	return nil
}

func (s *ProfileStore) GetByAccountID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	p, ok := s.Profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (s *ProfileStore) UpdateEditable(_ context.Context, id uuid.UUID, edit models.ProfileEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	p, ok := s.Profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	now := time.Now()
	p.DisplayName = edit.DisplayName
	p.Bio = edit.Bio
	p.Privacy = edit.Privacy
	p.UpdatedAt = &now
	s.Profiles[id] = p
	return nil
}

func (s *ProfileStore) SetPhotoURL(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.PhotoURL = url
	s.Profiles[id] = p
	return nil
}

// ContactStore is an in-memory ContactRepository. Lookups counts Exists calls.
type ContactStore struct {
	mu      sync.Mutex
	Edges   map[[2]uuid.UUID]time.Time
	Lookups int
	Err     error
}

func NewContactStore() *ContactStore {
	return &ContactStore{Edges: make(map[[2]uuid.UUID]time.Time)}
}

func (s *ContactStore) Exists(_ context.Context, owner, member uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.Edges[[2]uuid.UUID{owner, member}]
	return ok, nil
}

func (s *ContactStore) Add(_ context.Context, owner, member uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{owner, member}
	if _, ok := s.Edges[key]; !ok {
		s.Edges[key] = time.Now()
	}
	return nil
}

func (s *ContactStore) Remove(_ context.Context, owner, member uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{owner, member}
	if _, ok := s.Edges[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.Edges, key)
	return nil
}

func (s *ContactStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Contact
	for key, at := range s.Edges {
		if key[0] == owner {
			out = append(out, &models.Contact{OwnerID: key[0], MemberID: key[1], CreatedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PresenceWrite is one recorded SetStatus call.
type PresenceWrite struct {
	AccountID uuid.UUID
	Status    models.PresenceStatus
}

// PresenceStore records every write in arrival order and keeps the latest
// record per account. It is safe for concurrent writers.
type PresenceStore struct {
	mu      sync.Mutex
	Writes  []PresenceWrite
	Records map[uuid.UUID]models.Presence
	Err     error
	// Clock stands in for the server clock.
	Clock func() time.Time
}

func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		Records: make(map[uuid.UUID]models.Presence),
		Clock:   time.Now,
	}
}

func (s *PresenceStore) SetStatus(_ context.Context, id uuid.UUID, status models.PresenceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes = append(s.Writes, PresenceWrite{AccountID: id, Status: status})
	if s.Err != nil {
		return s.Err
	}
	s.Records[id] = models.Presence{AccountID: id, Status: status, LastSeen: s.Clock()}
	return nil
}

func (s *PresenceStore) GetPresence(_ context.Context, id uuid.UUID) (*models.Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Records[id]
	if !ok {
		return &models.Presence{AccountID: id, Status: models.StatusOffline}, nil
	}
	return &p, nil
}

// Snapshot returns a copy of the recorded writes.
func (s *PresenceStore) Snapshot() []PresenceWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PresenceWrite(nil), s.Writes...)
}

// Count returns how many writes carried status.
func (s *PresenceStore) Count(status models.PresenceStatus) int {
	n := 0
	for _, w := range s.Snapshot() {
		if w.Status == status {
			n++
		}
	}
	return n
}

// AccountStore is an in-memory AccountRepository.
type AccountStore struct {
	mu       sync.Mutex
	Accounts map[uuid.UUID]models.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{Accounts: make(map[uuid.UUID]models.Account)}
}

func (s *AccountStore) Create(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.Accounts[a.ID] = *a
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// DeviceStore is an in-memory DeviceRepository.
type DeviceStore struct {
	mu      sync.Mutex
	Devices map[uuid.UUID]models.Device
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{Devices: make(map[uuid.UUID]models.Device)}
}

func (s *DeviceStore) Create(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	s.Devices[d.ID] = *d
	return nil
}

func (s *DeviceStore) GetByID(_ context.Context, id uuid.UUID) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Devices[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (s *DeviceStore) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Device
	for _, d := range s.Devices {
		if d.AccountID == accountID {
			d := d
			out = append(out, &d)
		}
	}
	return out, nil
}

func (s *DeviceStore) Touch(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Devices[id]
	if !ok {
		return repositories.ErrNotFound
	}
	now := time.Now()
	d.LastSeenAt = &now
	s.Devices[id] = d
	return nil
}

func (s *DeviceStore) Revoke(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Devices[id]
	if !ok || d.RevokedAt != nil {
		return repositories.ErrNotFound
	}
	now := time.Now()
	d.RevokedAt = &now
	s.Devices[id] = d
	return nil
}

// SessionStore is an in-memory SessionRepository.
type SessionStore struct {
	mu       sync.Mutex
	Sessions map[string]models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{Sessions: make(map[string]models.Session)}
}

func (s *SessionStore) Create(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sessions[sess.ID] = *sess
	return nil
}

func (s *SessionStore) GetByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.Sessions[id]
	if !ok || sess.Expired(time.Now()) {
		return nil, repositories.ErrNotFound
	}
	return &sess, nil
}

func (s *SessionStore) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Session
	for _, sess := range s.Sessions {
		if sess.AccountID == accountID {
			sess := sess
			out = append(out, &sess)
		}
	}
	return out, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Sessions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.Sessions, id)
	return nil
}

func (s *SessionStore) DeleteAllForAccount(_ context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.Sessions {
		if sess.AccountID == accountID {
			delete(s.Sessions, id)
		}
	}
	return nil
}

var (
	_ repositories.ProfileRepository  = (*ProfileStore)(nil)
	_ repositories.ContactRepository  = (*ContactStore)(nil)
	_ repositories.PresenceRepository = (*PresenceStore)(nil)
	_ repositories.AccountRepository  = (*AccountStore)(nil)
	_ repositories.DeviceRepository   = (*DeviceStore)(nil)
	_ repositories.SessionRepository  = (*SessionStore)(nil)
)
