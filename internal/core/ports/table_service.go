package ports

import (
	"context"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

// PageSize is the fixed number of rows per page on every list operation.
const PageSize = 10

// ListInput carries the caller supplied filters and the 1-based page.
type ListInput struct {
	Filters map[string]any
	Page    int
}

// Page is one window of a filtered listing.
type Page struct {
	Items   []domain.Document
	Count   int64
	Page    int
	HasNext bool
	HasPrev bool
}

// TableService lists and retrieves any registered entity by name.
type TableService interface {
	List(ctx context.Context, actor domain.Actor, table string, in ListInput) (*Page, error)
	Detail(ctx context.Context, actor domain.Actor, table, id string) (domain.Document, error)
}

// RecordService is the create/read/update/delete surface of the per-entity
// endpoints. Payloads are decoded against the entity schema.
type RecordService interface {
	Create(ctx context.Context, actor domain.Actor, entity registry.Entity, payload map[string]any) (domain.Document, error)
	Get(ctx context.Context, actor domain.Actor, entity registry.Entity, id string) (domain.Document, error)
	List(ctx context.Context, actor domain.Actor, entity registry.Entity, page int) (*Page, error)
	Update(ctx context.Context, actor domain.Actor, entity registry.Entity, id string, payload map[string]any) (domain.Document, error)
	Delete(ctx context.Context, actor domain.Actor, entity registry.Entity, id string) error
}

// IDGenerator produces a fresh unique identifier for d.
type IDGenerator interface {
	NewID(ctx context.Context, d *registry.Descriptor) (string, error)
}
