// Package profile drives one profile view session: fetch, gate, view, edit
// and save.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/observability"
	"github.com/prudhvinik1/chatline/internal/repositories"
)

var (
	ErrInvalidTransition = errors.New("invalid profile state transition")
	ErrNotEditable       = errors.New("only the owner can edit a profile")
	ErrInvalidEdit       = errors.New("invalid profile edit")
)

type State int

const (
	StateLoading State = iota
	StateDenied
	StateViewing
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDenied:
		return "denied"
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	default:
		return "unknown"
	}
}

// DenyReason explains a denied state.
type DenyReason string

const (
	DenyNone        DenyReason = ""
	DenyPolicy      DenyReason = "policy"
	DenyNotFound    DenyReason = "not_found"
	DenyUnavailable DenyReason = "unavailable"
)

// Gate decides visibility; *access.Gate satisfies it.
type Gate interface {
	CanView(ctx context.Context, requesterID, subjectID uuid.UUID, privacy models.PrivacySettings) (bool, error)
}

type PresenceReader interface {
	GetPresence(ctx context.Context, accountID uuid.UUID) (*models.Presence, error)
}

type Deps struct {
	Profiles repositories.ProfileRepository
	Gate     Gate
	// Presence is optional; views carry no presence without it.
	Presence PresenceReader
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Controller holds the state of a single view session. It is not safe for
// concurrent use.
type Controller struct {
	deps      Deps
	requester uuid.UUID
	target    uuid.UUID

	state  State
	reason DenyReason
	doc    *models.Profile
	draft  models.ProfileEdit
}

// NewController starts a session for requester viewing target. A nil target
// means the requester's own profile.
func NewController(deps Deps, requester uuid.UUID, target *uuid.UUID) *Controller {
	if deps.Logger == nil {
		deps.Logger = observability.Discard()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(nil)
	}
	c := &Controller{deps: deps, requester: requester, target: requester}
	if target != nil && *target != uuid.Nil {
		c.target = *target
	}
	return c
}

func (c *Controller) State() State { return c.state }
func (c *Controller) DenyReason() DenyReason { return c.reason }
func (c *Controller) Target() uuid.UUID { return c.target }
func (c *Controller) IsOwnProfile() bool { return c.target == c.requester }
func (c *Controller) Draft() models.ProfileEdit { return c.draft }

// Document returns the loaded profile, or nil outside viewing and editing.
func (c *Controller) Document() *models.Profile {
	if c.state != StateViewing && c.state != StateEditing {
		return nil
	}
	return c.doc
}

// Load fetches the target and applies the gate. Fetch failures and missing
// profiles end in the denied state; they are logged, not returned.
func (c *Controller) Load(ctx context.Context) error {
	if c.state != StateLoading {
		return fmt.Errorf("%w: load from %s", ErrInvalidTransition, c.state)
	}

	doc, err := c.deps.Profiles.GetByAccountID(ctx, c.target)
	if errors.Is(err, repositories.ErrNotFound) {
		c.deny(DenyNotFound)
		return nil
	}
	if err != nil {
		c.deps.Logger.Error("failed to load profile", "target_id", c.target, "error", err)
		c.deny(DenyUnavailable)
		return nil
	}

	allowed, err := c.deps.Gate.CanView(ctx, c.requester, c.target, doc.Privacy)
	if err != nil {
		c.deps.Logger.Error("failed to evaluate profile access",
			"requester_id", c.requester, "target_id", c.target, "error", err)
		c.deny(DenyUnavailable)
		return nil
	}
	if !allowed {
		c.deny(DenyPolicy)
		return nil
	}

	c.doc = doc
	c.draft = seedDraft(doc)
	c.state = StateViewing
	return nil
}

// Retarget points the session at another profile. Only a different target
// re-enters loading.
func (c *Controller) Retarget(target *uuid.UUID) {
	next := c.requester
	if target != nil && *target != uuid.Nil {
		next = *target
	}
	if next == c.target {
		return
	}
	c.target = next
	c.state = StateLoading
	c.reason = DenyNone
	c.doc = nil
	c.draft = models.ProfileEdit{}
}

func (c *Controller) BeginEdit() error {
	if c.state != StateViewing {
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, c.state)
	}
	if !c.IsOwnProfile() {
		return ErrNotEditable
	}
	c.draft = seedDraft(c.doc)
	c.state = StateEditing
	return nil
}

// Edit mutates the local edit buffer. Nothing is written until Save.
func (c *Controller) Edit(fn func(*models.ProfileEdit)) error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: edit buffer outside editing", ErrInvalidTransition)
	}
	fn(&c.draft)
	return nil
}

// Save writes the buffer over display name, bio and privacy and returns to
// viewing. A failed write leaves the session in editing with the buffer kept.
func (c *Controller) Save(ctx context.Context) error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: save from %s", ErrInvalidTransition, c.state)
	}
	if err := validateDraft(c.draft); err != nil {
		return err
	}

	if err := c.deps.Profiles.UpdateEditable(ctx, c.target, c.draft); err != nil {
		c.deps.Metrics.ProfileSaves.WithLabelValues("error").Inc()
		c.deps.Logger.Error("failed to save profile", "account_id", c.target, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	c.deps.Metrics.ProfileSaves.WithLabelValues("success").Inc()

	updated := *c.doc
	updated.DisplayName = c.draft.DisplayName
	updated.Bio = c.draft.Bio
	updated.Privacy = c.draft.Privacy
	c.doc = &updated
	c.state = StateViewing
	return nil
}

// Cancel drops the buffer without touching the store.
func (c *Controller) Cancel() error {
	if c.state != StateEditing {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, c.state)
	}
	c.draft = seedDraft(c.doc)
	c.state = StateViewing
	return nil
}

func (c *Controller) deny(reason DenyReason) {
	c.state = StateDenied
	c.reason = reason
	c.doc = nil
}

// seedDraft copies the editable fields; a profile with no visibility set
// starts from the default settings.
func seedDraft(doc *models.Profile) models.ProfileEdit {
	draft := models.ProfileEdit{
		DisplayName: doc.DisplayName,
		Bio:         doc.Bio,
		Privacy:     doc.Privacy,
	}
	if doc.Privacy.ProfileVisibility == "" {
		draft.Privacy = models.DefaultPrivacy()
	}
	return draft
}

func validateDraft(d models.ProfileEdit) error {
	if strings.TrimSpace(d.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", ErrInvalidEdit)
	}
	if !d.Privacy.ProfileVisibility.IsValid() {
		return fmt.Errorf("%w: visibility %q", ErrInvalidEdit, d.Privacy.ProfileVisibility)
	}
	return nil
}

// View is what a viewer is shown. Privacy is only present on one's own
// profile; Status and LastSeen only when the subject's flags allow it.
type View struct {
	AccountID    uuid.UUID               `json:"id"`
	DisplayName  string                  `json:"displayName"`
	PhotoURL     string                  `json:"photoURL"`
	Bio          string                  `json:"bio,omitempty"`
	Stats        models.ProfileStats     `json:"stats"`
	IsOwnProfile bool                    `json:"isOwnProfile"`
	Privacy      *models.PrivacySettings `json:"privacy,omitempty"`
	Status       models.PresenceStatus   `json:"status,omitempty"`
	LastSeen     *time.Time              `json:"lastSeen,omitempty"`
}

// View projects the loaded profile. A presence read failure only drops the
// presence fields.
func (c *Controller) View(ctx context.Context) (*View, error) {
	doc := c.Document()
	if doc == nil {
		return nil, fmt.Errorf("%w: view from %s", ErrInvalidTransition, c.state)
	}

	v := &View{
		AccountID:    doc.AccountID,
		DisplayName:  doc.DisplayName,
		PhotoURL:     AvatarURL(doc.PhotoURL, doc.DisplayName),
		Bio:          doc.Bio,
		Stats:        doc.Stats,
		IsOwnProfile: c.IsOwnProfile(),
	}
	if v.IsOwnProfile {
		privacy := doc.Privacy
		v.Privacy = &privacy
	}

	showStatus := v.IsOwnProfile || doc.Privacy.ShowStatus
	showLastSeen := v.IsOwnProfile || doc.Privacy.ShowLastSeen
	if c.deps.Presence == nil || (!showStatus && !showLastSeen) {
		return v, nil
	}

	p, err := c.deps.Presence.GetPresence(ctx, doc.AccountID)
	if err != nil {
		c.deps.Logger.Warn("failed to read presence", "account_id", doc.AccountID, "error", err)
		return v, nil
	}
	if showStatus {
		v.Status = p.Status
	}
	if showLastSeen && !p.LastSeen.IsZero() {
		lastSeen := p.LastSeen
		v.LastSeen = &lastSeen
	}
	return v, nil
}

const generatedAvatarBase = "https://ui-avatars.com/api/"

// AvatarURL returns photoURL, or a generated initials avatar for
// displayName when no photo was uploaded.
func AvatarURL(photoURL, displayName string) string {
	if photoURL != "" {
		return photoURL
	}
	q := url.Values{}
	q.Set("name", displayName)
	q.Set("background", "random")
	return generatedAvatarBase + "?" + q.Encode()
}
