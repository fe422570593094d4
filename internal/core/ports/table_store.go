package ports

import (
	"context"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

// TableStore persists rows of any registered entity.
//
// Find returns rows ordered by createdDate then id ascending so offset
// pagination is stable. Insert reports a duplicate unique field as a
// *domain.ValidationError; Get, Update and Delete return domain.ErrNotFound
// for a missing id. Every other driver failure matches domain.ErrUpstream.
type TableStore interface {
	Insert(ctx context.Context, d *registry.Descriptor, doc domain.Document) error
	Get(ctx context.Context, d *registry.Descriptor, id string) (domain.Document, error)
	Find(ctx context.Context, d *registry.Descriptor, q domain.Query) ([]domain.Document, error)
	Count(ctx context.Context, d *registry.Descriptor, conds []domain.Condition) (int64, error)
	Exists(ctx context.Context, d *registry.Descriptor, field string, value any) (bool, error)
	Update(ctx context.Context, d *registry.Descriptor, id string, changes domain.Document) (domain.Document, error)
	Delete(ctx context.Context, d *registry.Descriptor, id string) error
}

// Pinger is implemented by backends that report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
