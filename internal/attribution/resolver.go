package attribution

import (
	"strings"

	"github.com/google/uuid"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/models"
)

// Snapshot is the read-only reseller and mapping state loaded once per
// reconciliation run. Loading once keeps attribution consistent across
// every router polled in the same run.
type Snapshot struct {
	resellers []models.Reseller
	mappings  map[string]uuid.UUID
}

// NewSnapshot builds a snapshot. Reseller order and per-reseller rule
// order are preserved because they are the tie-breakers of rule-based
// detection.
func NewSnapshot(resellers []models.Reseller, mappings []models.UserMapping) *Snapshot {
	byUser := make(map[string]uuid.UUID, len(mappings))
	for _, m := range mappings {
		byUser[m.PPPoEUsername] = m.ResellerID
	}
	return &Snapshot{
		resellers: resellers,
		mappings:  byUser,
	}
}

// SessionFacts are the attribution-relevant attributes of one session.
// ExistingResellerID carries an id already persisted for this session,
// whether written by a previous run or pinned manually by an operator.
type SessionFacts struct {
	Username           string
	Profile            string
	Comment            string
	ExistingResellerID *uuid.UUID
}

// Resolve determines the owning reseller for a session, or nil if the
// session is unattributed. Priority, first match wins:
//
//  1. manual user mapping (exact, case-sensitive)
//  2. reseller id already persisted on the session
//  3. detection rules, resellers in stored order, rules in stored order
//
// Resolve is pure and deterministic; identical inputs always yield the
// same attribution, which reconciliation idempotence depends on.
func (s *Snapshot) Resolve(facts SessionFacts) *uuid.UUID {
	if id, ok := s.mappings[facts.Username]; ok {
		resolved := id
		return &resolved
	}

	if facts.ExistingResellerID != nil {
		return facts.ExistingResellerID
	}

	for i := range s.resellers {
		reseller := &s.resellers[i]
		for _, rule := range reseller.DetectionRules {
			if ruleMatches(rule, facts) {
				resolved := reseller.ID
				return &resolved
			}
		}
	}

	return nil
}

// ruleMatches evaluates a single detection rule against a session.
func ruleMatches(rule models.DetectionRule, facts SessionFacts) bool {
	switch rule.Type {
	case models.RulePrefix:
		return strings.HasPrefix(facts.Username, rule.Value)
	case models.RuleProfile:
		return facts.Profile != "" && strings.EqualFold(facts.Profile, rule.Value)
	case models.RuleComment:
		return facts.Comment != "" &&
			strings.Contains(strings.ToLower(facts.Comment), strings.ToLower(rule.Value))
	default:
		logger.ResolverLog.Warnf("Ignoring detection rule with unknown type %q", rule.Type)
		return false
	}
}
