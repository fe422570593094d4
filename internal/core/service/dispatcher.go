package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/policy"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
)

// TableService lists and retrieves any registered entity by its runtime name.
type TableService struct {
	access
}

func NewTableService(store ports.TableStore, logger zerolog.Logger) *TableService {
	return &TableService{access: access{store: store, logger: logger}}
}

// List applies caller filters, then the policy row filter, and returns one
// page. Inactive rows are hidden unless the caller filters on isActive.
func (s *TableService) List(ctx context.Context, actor domain.Actor, table string, in ports.ListInput) (page *ports.Page, err error) {
	d, err := registry.Resolve(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(string(d.Entity), "list", err) }()

	dec, err := s.authorize(actor, d, policy.Read)
	if err != nil {
		return nil, err
	}

	conds, err := d.ParseFilters(in.Filters)
	if err != nil {
		return nil, err
	}
	if d.SoftDeletable() && !registry.HasCondition(conds, domain.FieldIsActive) {
		conds = append(conds, domain.Eq(domain.FieldIsActive, true))
	}
	scoped, err := s.scope(ctx, d, actor, dec)
	if err != nil {
		return nil, err
	}
	conds = append(conds, scoped...)

	page, err = s.page(ctx, d, conds, in.Page, dec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("table", string(d.Entity)).
		Str("actor_id", actor.UserID).
		Int("page", page.Page).
		Int64("count", page.Count).
		Msg("table listed")
	return page, nil
}

// Detail fetches a row by id regardless of its isActive flag. Actors whose
// role is refused the entity are denied before the row is looked up;
// owner-scoped actors are checked against the fetched row.
func (s *TableService) Detail(ctx context.Context, actor domain.Actor, table, id string) (doc domain.Document, err error) {
	d, err := registry.Resolve(table)
	if err != nil {
		return nil, err
	}
	defer func() { observe(string(d.Entity), "detail", err) }()

	dec, err := s.authorize(actor, d, policy.Read)
	if err != nil {
		return nil, err
	}
	doc, err = s.store.Get(ctx, d, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRow(ctx, d, actor, dec, policy.Read, doc); err != nil {
		return nil, err
	}
	return dec.Apply(doc), nil
}
