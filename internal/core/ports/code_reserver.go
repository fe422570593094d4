package ports

import (
	"context"
	"time"
)

// CodeReserver claims short codes across instances before they are written.
// Reserve returns false when another caller already holds code.
type CodeReserver interface {
	Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error)
}
