// Package policy decides, for an actor, an entity and an action, whether
// access is granted and how far it reaches. Rules are plain data in table.go
// and are interpreted the same way for every entity.
package policy

import (
	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

// Action is an operation on an entity.
type Action string

const (
	Read   Action = "read"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// Scope is the reach of a granted decision.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeAll
	ScopeOwner
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOwner:
		return "owner"
	default:
		return "none"
	}
}

// Rule grants an action. Public admits anyone including anonymous callers,
// Elevated admits the role and everything above it to every row, and Owner
// admits authenticated USER+ actors to the rows they own. A zero Rule admits
// only SUPER-ADMIN.
type Rule struct {
	Public   bool
	Elevated domain.Role
	Owner    bool
}

// Decision is the outcome of an evaluation.
type Decision struct {
	Allowed bool
	Scope   Scope
	Redact  []string
}

// Permits reports whether a row owned by ownerID is within the decision.
func (d Decision) Permits(actor domain.Actor, ownerID string) bool {
	switch {
	case !d.Allowed:
		return false
	case d.Scope == ScopeAll:
		return true
	default:
		return actor.Owns(ownerID)
	}
}

// Apply masks redacted fields of doc in place.
func (d Decision) Apply(doc domain.Document) domain.Document {
	for _, f := range d.Redact {
		if v, ok := doc[f]; ok && v != nil {
			doc[f] = Mask
		}
	}
	return doc
}

// Mask replaces redacted values on every read path.
const Mask = "********"

var denied = Decision{Scope: ScopeNone}

// Evaluate returns the decision for actor performing action on entity.
// Evaluation stops at the first matching grant; SUPER-ADMIN is granted
// everything with no row filter.
func Evaluate(actor domain.Actor, entity registry.Entity, action Action) Decision {
	redact := redactions[entity]

	if actor.Role == domain.RoleSuperAdmin {
		return Decision{Allowed: true, Scope: ScopeAll, Redact: redact}
	}

	rule := lookup(entity, action)
	switch {
	case rule.Public:
		return Decision{Allowed: true, Scope: ScopeAll, Redact: redact}
	case rule.Elevated != "" && actor.Role.AtLeast(rule.Elevated):
		return Decision{Allowed: true, Scope: ScopeAll, Redact: redact}
	case rule.Owner && actor.Authenticated() && actor.Role.AtLeast(domain.RoleUser):
		return Decision{Allowed: true, Scope: ScopeOwner, Redact: redact}
	}
	return denied
}

func lookup(entity registry.Entity, action Action) Rule {
	rules, ok := table[entity]
	if !ok {
		return Rule{}
	}
	return rules[action]
}
