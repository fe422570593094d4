package service

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/tablehub/backend/internal/api/metrics"
	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
)

// MaxIDAttempts bounds identifier generation before it gives up.
const MaxIDAttempts = 5

// IDGenerator issues "{PREFIX}-{8 hex}" identifiers checked for uniqueness
// against the target table.
type IDGenerator struct {
	store  ports.TableStore
	random func() string
}

func NewIDGenerator(store ports.TableStore) *IDGenerator {
	return NewIDGeneratorWithSource(store, randomHex)
}

// NewIDGeneratorWithSource uses random to produce the 8 character suffix.
func NewIDGeneratorWithSource(store ports.TableStore, random func() string) *IDGenerator {
	return &IDGenerator{store: store, random: random}
}

func randomHex() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

// NewID returns an identifier not yet present in d's table, or
// domain.ErrIDGenerationExhausted once every attempt collided.
func (g *IDGenerator) NewID(ctx context.Context, d *registry.Descriptor) (string, error) {
	for i := 0; i < MaxIDAttempts; i++ {
		id := fmt.Sprintf("%s-%s", d.Prefix, g.random())
		taken, err := g.store.Exists(ctx, d, domain.FieldID, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	metrics.IDGenerationExhaustedTotal.WithLabelValues(string(d.Entity)).Inc()
	return "", fmt.Errorf("%s after %d attempts: %w", d.Entity, MaxIDAttempts, domain.ErrIDGenerationExhausted)
}
