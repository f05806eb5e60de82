package access

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/observability"
	"github.com/prudhvinik1/chatline/internal/testkit/fakes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVisibilities = []models.ProfileVisibility{
	models.VisibilityPublic,
	models.VisibilityContacts,
	models.VisibilityPrivate,
	"",
	"friends-of-friends",
}

func privacy(v models.ProfileVisibility) models.PrivacySettings {
	return models.PrivacySettings{ProfileVisibility: v, ShowLastSeen: true, ShowStatus: true}
}

func TestGate_SelfAlwaysAllowed(t *testing.T) {
	contacts := fakes.NewContactStore()
	gate := NewGate(contacts, UnknownDeny, nil)
	id := uuid.New()

	for _, v := range allVisibilities {
		d, err := gate.Decide(context.Background(), id, id, privacy(v))
		require.NoError(t, err)
		assert.True(t, d.Allowed, "visibility %q", v)
		assert.Equal(t, RuleSelf, d.Rule)
	}
	assert.Zero(t, contacts.Lookups, "self views never hit the contact store")
}

func TestGate_PublicAllowsEveryone(t *testing.T) {
	gate := NewGate(fakes.NewContactStore(), UnknownAllow, nil)
	subject := uuid.New()

	for i := 0; i < 5; i++ {
		ok, err := gate.CanView(context.Background(), uuid.New(), subject, privacy(models.VisibilityPublic))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestGate_PrivateDeniesContacts(t *testing.T) {
	contacts := fakes.NewContactStore()
	gate := NewGate(contacts, UnknownAllow, nil)
	subject, requester := uuid.New(), uuid.New()
	require.NoError(t, contacts.Add(context.Background(), subject, requester))

	ok, err := gate.CanView(context.Background(), requester, subject, privacy(models.VisibilityPrivate))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, contacts.Lookups)
}

func TestGate_ContactsRequiresEdge(t *testing.T) {
	ctx := context.Background()
	contacts := fakes.NewContactStore()
	gate := NewGate(contacts, UnknownAllow, nil)
	subject, requester := uuid.New(), uuid.New()

	ok, err := gate.CanView(ctx, requester, subject, privacy(models.VisibilityContacts))
	require.NoError(t, err)
	assert.False(t, ok)

	// The edge must point from the subject to the requester.
	require.NoError(t, contacts.Add(ctx, requester, subject))
	ok, err = gate.CanView(ctx, requester, subject, privacy(models.VisibilityContacts))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, contacts.Add(ctx, subject, requester))
	ok, err = gate.CanView(ctx, requester, subject, privacy(models.VisibilityContacts))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, contacts.Lookups)
}

func TestGate_ContactLookupError(t *testing.T) {
	contacts := fakes.NewContactStore()
	contacts.Err = errors.New("connection reset")
	gate := NewGate(contacts, UnknownAllow, nil)

	d, err := gate.Decide(context.Background(), uuid.New(), uuid.New(), privacy(models.VisibilityContacts))
	require.Error(t, err)
	assert.False(t, d.Allowed)
}

func TestGate_UnknownVisibilityPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  UnknownPolicy
		allowed bool
	}{
		{"fail open by default", "", true},
		{"explicit allow", UnknownAllow, true},
		{"explicit deny", UnknownDeny, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(fakes.NewContactStore(), tt.policy, nil)
			for _, v := range []models.ProfileVisibility{"", "friends-of-friends"} {
				d, err := gate.Decide(context.Background(), uuid.New(), uuid.New(), privacy(v))
				require.NoError(t, err)
				assert.Equal(t, tt.allowed, d.Allowed)
				assert.Equal(t, RuleUnknown, d.Rule)
			}
		})
	}
}

func TestGate_RecordsDecisions(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	gate := NewGate(fakes.NewContactStore(), UnknownAllow, metrics)

	_, err := gate.Decide(context.Background(), uuid.New(), uuid.New(), privacy(models.VisibilityPrivate))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AccessDecisions.WithLabelValues("private", "deny")))
}
