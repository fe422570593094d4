package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tablehub/backend/internal/core/domain"
)

// CodeReserver claims session codes with SET NX so two instances never hand
// out the same code between the uniqueness check and the insert.
// Key format: session:code:<code>
type CodeReserver struct {
	client redis.Cmdable
}

func NewCodeReserver(client redis.Cmdable) *CodeReserver {
	return &CodeReserver{client: client}
}

// Reserve reports whether code was free and is now held for ttl.
func (r *CodeReserver) Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(code), "1", ttl).Result()
	if err != nil {
		return false, domain.Upstream("redis reserve", err)
	}
	return ok, nil
}

func (r *CodeReserver) key(code string) string {
	return fmt.Sprintf("session:code:%s", code)
}
