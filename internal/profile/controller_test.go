package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/access"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/testkit/fakes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	profiles *fakes.ProfileStore
	contacts *fakes.ContactStore
	presence *fakes.PresenceStore
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		profiles: fakes.NewProfileStore(),
		contacts: fakes.NewContactStore(),
		presence: fakes.NewPresenceStore(),
	}
	f.deps = Deps{
		Profiles: f.profiles,
		Gate:     access.NewGate(f.contacts, access.UnknownAllow, nil),
		Presence: f.presence,
	}
	return f
}

func (f *fixture) addProfile(t *testing.T, name string, v models.ProfileVisibility) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.profiles.Create(context.Background(), &models.Profile{
		AccountID:   id,
		DisplayName: name,
		Bio:         "hello",
		Privacy:     models.PrivacySettings{ProfileVisibility: v, ShowLastSeen: true, ShowStatus: true},
		Stats:       models.ProfileStats{Posts: 3, Followers: 12, Following: 7},
	}))
	return id
}

func load(t *testing.T, deps Deps, requester, target uuid.UUID) *Controller {
	t.Helper()
	c := NewController(deps, requester, &target)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestController_PublicProfileViewedByOther(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)
	b := uuid.New()

	c := load(t, f.deps, b, a)

	assert.Equal(t, StateViewing, c.State())
	assert.False(t, c.IsOwnProfile())
	assert.Equal(t, "Mario", c.Document().DisplayName)
}

// Contacts-only profile: denied without an edge, visible after the subject
// adds the viewer and the profile is fetched again.
func TestController_ContactsScenario(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityContacts)
	b := uuid.New()

	c := load(t, f.deps, b, a)
	assert.Equal(t, StateDenied, c.State())
	assert.Equal(t, DenyPolicy, c.DenyReason())
	assert.Nil(t, c.Document())

	require.NoError(t, f.contacts.Add(context.Background(), a, b))

	c = load(t, f.deps, b, a)
	assert.Equal(t, StateViewing, c.State())
}

func TestController_MissingProfileDenied(t *testing.T) {
	f := newFixture(t)

	c := load(t, f.deps, uuid.New(), uuid.New())

	assert.Equal(t, StateDenied, c.State())
	assert.Equal(t, DenyNotFound, c.DenyReason())
}

func TestController_FetchFailureDenied(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)
	f.profiles.GetErr = errors.New("timeout")

	c := load(t, f.deps, a, a)

	assert.Equal(t, StateDenied, c.State())
	assert.Equal(t, DenyUnavailable, c.DenyReason())
}

func TestController_LoadOnlyOnce(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)

	c := load(t, f.deps, a, a)
	err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Same target does not reload; a new one does.
	c.Retarget(nil)
	assert.Equal(t, StateViewing, c.State())
	other := f.addProfile(t, "Luigi", models.VisibilityPublic)
	c.Retarget(&other)
	assert.Equal(t, StateLoading, c.State())
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "Luigi", c.Document().DisplayName)
}

func TestController_NilTargetIsOwnProfile(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPrivate)

	c := NewController(f.deps, a, nil)
	require.NoError(t, c.Load(context.Background()))

	assert.True(t, c.IsOwnProfile())
	assert.Equal(t, StateViewing, c.State())
}

func TestController_SaveOwnProfile(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)
	ctx := context.Background()

	c := load(t, f.deps, a, a)
	require.NoError(t, c.BeginEdit())
	assert.Equal(t, StateEditing, c.State())
	require.NoError(t, c.Edit(func(e *models.ProfileEdit) { e.DisplayName = "Luigi" }))
	require.NoError(t, c.Save(ctx))
	assert.Equal(t, StateViewing, c.State())
	assert.Equal(t, "Luigi", c.Document().DisplayName)

	// A fresh fetch sees the new name with stats unchanged.
	again := load(t, f.deps, a, a)
	assert.Equal(t, "Luigi", again.Document().DisplayName)
	assert.Equal(t, models.ProfileStats{Posts: 3, Followers: 12, Following: 7}, again.Document().Stats)
}

func TestController_CancelDiscardsBuffer(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)

	c := load(t, f.deps, a, a)
	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.Edit(func(e *models.ProfileEdit) { e.Bio = "changed" }))
	require.NoError(t, c.Cancel())

	assert.Equal(t, StateViewing, c.State())
	assert.Equal(t, "hello", c.Draft().Bio)
	stored, err := f.profiles.GetByAccountID(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Bio)
	assert.Nil(t, stored.UpdatedAt)
}

func TestController_SaveFailureStaysEditing(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)
	f.profiles.UpdateErr = errors.New("write failed")

	c := load(t, f.deps, a, a)
	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.Edit(func(e *models.ProfileEdit) { e.DisplayName = "Luigi" }))

	err := c.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, "Luigi", c.Draft().DisplayName)
	assert.Equal(t, "Mario", c.Document().DisplayName)
}

func TestController_SaveRejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)

	c := load(t, f.deps, a, a)
	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.Edit(func(e *models.ProfileEdit) { e.Privacy.ProfileVisibility = "everyone" }))

	assert.ErrorIs(t, c.Save(context.Background()), ErrInvalidEdit)
	assert.Equal(t, StateEditing, c.State())
}

func TestController_OthersCannotEdit(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPublic)

	c := load(t, f.deps, uuid.New(), a)

	assert.ErrorIs(t, c.BeginEdit(), ErrNotEditable)
	assert.ErrorIs(t, c.Save(context.Background()), ErrInvalidTransition)
	assert.Equal(t, StateViewing, c.State())
}

func TestController_DeniedIsTerminal(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", models.VisibilityPrivate)

	c := load(t, f.deps, uuid.New(), a)

	assert.ErrorIs(t, c.BeginEdit(), ErrInvalidTransition)
	assert.ErrorIs(t, c.Load(context.Background()), ErrInvalidTransition)
	_, err := c.View(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestController_LegacyPrivacySeedsDefaults(t *testing.T) {
	f := newFixture(t)
	a := f.addProfile(t, "Mario", "")

	c := load(t, f.deps, a, a)
	require.NoError(t, c.BeginEdit())

	assert.Equal(t, models.DefaultPrivacy(), c.Draft().Privacy)
}

func TestController_ViewRespectsPresenceFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seen := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	f.presence.Clock = func() time.Time { return seen }

	a := f.addProfile(t, "Mario", models.VisibilityPublic)
	require.NoError(t, f.presence.SetStatus(ctx, a, models.StatusOnline))

	viewer := uuid.New()
	v, err := load(t, f.deps, viewer, a).View(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, v.Status)
	require.NotNil(t, v.LastSeen)
	assert.True(t, seen.Equal(*v.LastSeen))
	assert.Nil(t, v.Privacy, "privacy label is only shown to the owner")

	p := f.profiles.Profiles[a]
	p.Privacy.ShowStatus = false
	p.Privacy.ShowLastSeen = false
	f.profiles.Profiles[a] = p

	v, err = load(t, f.deps, viewer, a).View(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Status)
	assert.Nil(t, v.LastSeen)

	// The owner always sees their own presence and privacy.
	v, err = load(t, f.deps, a, a).View(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, v.Status)
	require.NotNil(t, v.Privacy)
	assert.False(t, v.Privacy.ShowStatus)
}

func TestAvatarURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.png", AvatarURL("https://cdn.example.com/a.png", "Mario"))
	assert.Equal(t, "https://ui-avatars.com/api/?background=random&name=Mario+%26+Luigi", AvatarURL("", "Mario & Luigi"))
}
