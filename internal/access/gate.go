// Package access decides whether one account may view another's profile.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/observability"
)

// UnknownPolicy decides profiles whose visibility is missing or unrecognised.
type UnknownPolicy string

const (
	UnknownAllow UnknownPolicy = "allow"
	UnknownDeny  UnknownPolicy = "deny"
)

// Rule names the row of the decision table that matched.
type Rule string

const (
	RuleSelf     Rule = "self"
	RulePublic   Rule = "public"
	RuleContacts Rule = "contacts"
	RulePrivate  Rule = "private"
	RuleUnknown  Rule = "unknown"
)

// ContactChecker reports whether member is in owner's contact list.
type ContactChecker interface {
	Exists(ctx context.Context, ownerID, memberID uuid.UUID) (bool, error)
}

type Decision struct {
	Allowed bool
	Rule    Rule
}

type Gate struct {
	contacts ContactChecker
	unknown  UnknownPolicy
	metrics  *observability.Metrics
}

func NewGate(contacts ContactChecker, unknown UnknownPolicy, metrics *observability.Metrics) *Gate {
	if unknown != UnknownDeny {
		unknown = UnknownAllow
	}
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Gate{contacts: contacts, unknown: unknown, metrics: metrics}
}

// Decide applies the visibility table, first match wins:
//
//	requester is subject      allow
//	public                    allow
//	contacts                  allow iff requester is in subject's contacts
//	private                   deny, contacts included
//	anything else             the configured UnknownPolicy
//
// Only the contacts row touches the store. A lookup error is returned with a
// deny decision.
func (g *Gate) Decide(ctx context.Context, requesterID, subjectID uuid.UUID, privacy models.PrivacySettings) (Decision, error) {
	d, err := g.decide(ctx, requesterID, subjectID, privacy)
	if err != nil {
		return d, err
	}
	result := "deny"
	if d.Allowed {
		result = "allow"
	}
	g.metrics.AccessDecisions.WithLabelValues(string(d.Rule), result).Inc()
	return d, nil
}

// CanView is Decide reduced to its boolean.
func (g *Gate) CanView(ctx context.Context, requesterID, subjectID uuid.UUID, privacy models.PrivacySettings) (bool, error) {
	d, err := g.Decide(ctx, requesterID, subjectID, privacy)
	return d.Allowed, err
}

func (g *Gate) decide(ctx context.Context, requesterID, subjectID uuid.UUID, privacy models.PrivacySettings) (Decision, error) {
	if requesterID == subjectID {
		return Decision{Allowed: true, Rule: RuleSelf}, nil
	}

	switch privacy.ProfileVisibility {
	case models.VisibilityPublic:
		return Decision{Allowed: true, Rule: RulePublic}, nil
	case models.VisibilityContacts:
		ok, err := g.contacts.Exists(ctx, subjectID, requesterID)
		if err != nil {
			return Decision{Allowed: false, Rule: RuleContacts}, fmt.Errorf("failed to check contact: %w", err)
		}
		return Decision{Allowed: ok, Rule: RuleContacts}, nil
	case models.VisibilityPrivate:
		return Decision{Allowed: false, Rule: RulePrivate}, nil
	default:
		return Decision{Allowed: g.unknown == UnknownAllow, Rule: RuleUnknown}, nil
	}
}
