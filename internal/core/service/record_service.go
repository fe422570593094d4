package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/policy"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
)

// RecordService implements the per-entity create/read/update/delete
// endpoints on top of the same policy table as the dispatcher.
type RecordService struct {
	access
	ids ports.IDGenerator
	now func() time.Time
}

func NewRecordService(store ports.TableStore, ids ports.IDGenerator, logger zerolog.Logger) *RecordService {
	return &RecordService{
		access: access{store: store, logger: logger},
		ids:    ids,
		now:    utcNow,
	}
}

func (s *RecordService) Create(ctx context.Context, actor domain.Actor, entity registry.Entity, payload map[string]any) (doc domain.Document, err error) {
	d := registry.MustGet(entity)
	defer func() { observe(string(entity), "create", err) }()

	dec, err := s.authorize(actor, d, policy.Create)
	if err != nil {
		return nil, err
	}
	doc, err = d.Decode(payload)
	if err != nil {
		return nil, err
	}
	if err := applyHooks(d, doc, true); err != nil {
		return nil, err
	}
	if o := d.Owner; o != nil && !o.Transitive() && actor.Authenticated() {
		if f, _ := d.Field(o.Field); f.Writable() && doc[o.Field] == nil {
			doc[o.Field] = actor.UserID
		}
	}
	if err := s.checkRefs(ctx, d, doc); err != nil {
		return nil, err
	}
	// ownership is settled before anything is written
	if err := s.checkRow(ctx, d, actor, dec, policy.Create, doc); err != nil {
		return nil, err
	}

	id, err := s.ids.NewID(ctx, d)
	if err != nil {
		s.logger.Error().Err(err).Str("table", string(entity)).Msg("id generation failed")
		return nil, err
	}
	doc[domain.FieldID] = id
	stamp(doc, actor, s.now(), true)

	if err := s.store.Insert(ctx, d, doc); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("table", string(entity)).
		Str("id", id).
		Str("actor_id", actor.UserID).
		Msg("record created")
	return dec.Apply(doc.Clone()), nil
}

// Get returns an active row. Soft-deleted rows are reported as missing.
func (s *RecordService) Get(ctx context.Context, actor domain.Actor, entity registry.Entity, id string) (doc domain.Document, err error) {
	d := registry.MustGet(entity)
	defer func() { observe(string(entity), "detail", err) }()

	dec, err := s.authorize(actor, d, policy.Read)
	if err != nil {
		return nil, err
	}
	doc, err = s.store.Get(ctx, d, id)
	if err != nil {
		return nil, err
	}
	if d.SoftDeletable() && !doc.Bool(domain.FieldIsActive) {
		return nil, fmt.Errorf("%s %s is inactive: %w", entity, id, domain.ErrNotFound)
	}
	if err := s.checkRow(ctx, d, actor, dec, policy.Read, doc); err != nil {
		return nil, err
	}
	return dec.Apply(doc), nil
}

func (s *RecordService) List(ctx context.Context, actor domain.Actor, entity registry.Entity, page int) (p *ports.Page, err error) {
	d := registry.MustGet(entity)
	defer func() { observe(string(entity), "list", err) }()

	dec, err := s.authorize(actor, d, policy.Read)
	if err != nil {
		return nil, err
	}
	var conds []domain.Condition
	if d.SoftDeletable() {
		conds = append(conds, domain.Eq(domain.FieldIsActive, true))
	}
	scoped, err := s.scope(ctx, d, actor, dec)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, d, append(conds, scoped...), page, dec)
}

func (s *RecordService) Update(ctx context.Context, actor domain.Actor, entity registry.Entity, id string, payload map[string]any) (doc domain.Document, err error) {
	d := registry.MustGet(entity)
	defer func() { observe(string(entity), "update", err) }()

	dec, err := s.authorize(actor, d, policy.Update)
	if err != nil {
		return nil, err
	}
	cur, err := s.store.Get(ctx, d, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRow(ctx, d, actor, dec, policy.Update, cur); err != nil {
		return nil, err
	}

	changes, err := d.Decode(payload)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, domain.NewValidationError("body", "no fields to update")
	}
	if err := applyHooks(d, changes, false); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, d, changes); err != nil {
		return nil, err
	}

	// the row must stay within the actor's reach after the change
	merged := cur.Clone()
	for k, v := range changes {
		merged[k] = v
	}
	if err := s.checkRow(ctx, d, actor, dec, policy.Update, merged); err != nil {
		return nil, err
	}

	stamp(changes, actor, s.now(), false)
	doc, err = s.store.Update(ctx, d, id, changes)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("table", string(entity)).
		Str("id", id).
		Str("actor_id", actor.UserID).
		Msg("record updated")
	return dec.Apply(doc), nil
}

// Delete flags soft-delete entities inactive and removes the rest.
func (s *RecordService) Delete(ctx context.Context, actor domain.Actor, entity registry.Entity, id string) (err error) {
	d := registry.MustGet(entity)
	defer func() { observe(string(entity), "delete", err) }()

	dec, err := s.authorize(actor, d, policy.Delete)
	if err != nil {
		return err
	}
	cur, err := s.store.Get(ctx, d, id)
	if err != nil {
		return err
	}
	if err := s.checkRow(ctx, d, actor, dec, policy.Delete, cur); err != nil {
		return err
	}

	if d.Delete == registry.SoftDelete {
		changes := domain.Document{domain.FieldIsActive: false}
		stamp(changes, actor, s.now(), false)
		_, err = s.store.Update(ctx, d, id, changes)
	} else {
		err = s.store.Delete(ctx, d, id)
	}
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("table", string(entity)).
		Str("id", id).
		Str("actor_id", actor.UserID).
		Bool("soft", d.Delete == registry.SoftDelete).
		Msg("record deleted")
	return nil
}

// checkRefs verifies that every reference set in doc names an existing row.
func (s *RecordService) checkRefs(ctx context.Context, d *registry.Descriptor, doc domain.Document) error {
	verr := &domain.ValidationError{}
	for name, v := range doc {
		f, ok := d.Field(name)
		if !ok || f.Kind != registry.KindRef || !f.Writable() || v == nil {
			continue
		}
		found, err := s.store.Exists(ctx, registry.MustGet(f.Ref), domain.FieldID, v)
		if err != nil {
			return err
		}
		if !found {
			verr.Add(name, "references a missing "+string(f.Ref))
		}
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}
