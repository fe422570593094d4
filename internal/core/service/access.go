package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablehub/backend/internal/api/metrics"
	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/policy"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
)

// access is the policy-aware read path shared by the table dispatcher and the
// record service.
type access struct {
	store  ports.TableStore
	logger zerolog.Logger
}

func (a access) authorize(actor domain.Actor, d *registry.Descriptor, action policy.Action) (policy.Decision, error) {
	dec := policy.Evaluate(actor, d.Entity, action)
	if !dec.Allowed {
		return dec, a.deny(actor, d, action)
	}
	return dec, nil
}

func (a access) deny(actor domain.Actor, d *registry.Descriptor, action policy.Action) error {
	metrics.PermissionDeniedTotal.WithLabelValues(string(d.Entity), actor.Role.String()).Inc()
	a.logger.Warn().
		Str("table", string(d.Entity)).
		Str("action", string(action)).
		Str("actor_id", actor.UserID).
		Str("role", actor.Role.String()).
		Msg("permission denied")
	return fmt.Errorf("%s %s: %w", action, d.Entity, domain.ErrPermissionDenied)
}

// scope returns the row filter mandated by dec for actor.
func (a access) scope(ctx context.Context, d *registry.Descriptor, actor domain.Actor, dec policy.Decision) ([]domain.Condition, error) {
	if dec.Scope == policy.ScopeAll {
		return nil, nil
	}
	o := d.Owner
	if o == nil {
		return nil, a.deny(actor, d, policy.Read)
	}
	if !o.Transitive() {
		return []domain.Condition{domain.Eq(o.Field, actor.UserID)}, nil
	}

	parent := registry.MustGet(o.Via)
	rows, err := a.store.Find(ctx, parent, domain.Query{
		Conditions: []domain.Condition{domain.Eq(o.ViaField, actor.UserID)},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID())
	}
	return []domain.Condition{{Field: o.Field, Op: domain.OpIn, Value: ids}}, nil
}

// ownerOf resolves the identity owning doc, following one hop for
// transitively owned entities. A dangling parent reference has no owner.
func (a access) ownerOf(ctx context.Context, d *registry.Descriptor, doc domain.Document) (string, error) {
	o := d.Owner
	if o == nil {
		return "", nil
	}
	if !o.Transitive() {
		return doc.String(o.Field), nil
	}
	parentID := doc.String(o.Field)
	if parentID == "" {
		return "", nil
	}
	parent, err := a.store.Get(ctx, registry.MustGet(o.Via), parentID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return parent.String(o.ViaField), nil
}

// checkRow enforces an owner-scoped decision against a single row.
func (a access) checkRow(ctx context.Context, d *registry.Descriptor, actor domain.Actor, dec policy.Decision, action policy.Action, doc domain.Document) error {
	if dec.Scope == policy.ScopeAll {
		return nil
	}
	owner, err := a.ownerOf(ctx, d, doc)
	if err != nil {
		return err
	}
	if !dec.Permits(actor, owner) {
		return a.deny(actor, d, action)
	}
	return nil
}

// page runs a filtered count and one window of rows. page is 1-based; asking
// past the last page is ErrNotFound, an empty first page is not.
func (a access) page(ctx context.Context, d *registry.Descriptor, conds []domain.Condition, page int, dec policy.Decision) (*ports.Page, error) {
	if page < 1 {
		page = 1
	}
	total, err := a.store.Count(ctx, d, conds)
	if err != nil {
		return nil, err
	}
	pages := int((total + ports.PageSize - 1) / ports.PageSize)
	if page > 1 && page > pages {
		return nil, fmt.Errorf("%s page %d: %w", d.Entity, page, domain.ErrNotFound)
	}

	rows, err := a.store.Find(ctx, d, domain.Query{
		Conditions: conds,
		Offset:     (page - 1) * ports.PageSize,
		Limit:      ports.PageSize,
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		dec.Apply(r)
	}
	return &ports.Page{
		Items:   rows,
		Count:   total,
		Page:    page,
		HasNext: page < pages,
		HasPrev: page > 1,
	}, nil
}

// stamp sets audit fields on a row about to be written. Creation fields are
// written once.
func stamp(doc domain.Document, actor domain.Actor, now time.Time, creating bool) {
	if creating {
		doc[domain.FieldCreatedDate] = now
		doc[domain.FieldCreatedByID] = actor.AuditID()
	}
	doc[domain.FieldLastModifiedDate] = now
	doc[domain.FieldLastModifiedByID] = actor.AuditID()
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnknownEntity),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrValidationFailed):
		return "invalid"
	default:
		return "error"
	}
}

func observe(table, op string, err error) {
	metrics.TableOperationsTotal.WithLabelValues(table, op, outcome(err)).Inc()
}
