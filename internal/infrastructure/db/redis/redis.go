package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clientName  = "tablehub"
	dialTimeout = 5 * time.Second
)

type Config struct {
	Addr     string
	DB       int
	Password string
	// Timeout bounds the initial ping; zero means dialTimeout.
	Timeout time.Duration
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:        c.Addr,
		DB:          c.DB,
		Password:    c.Password,
		ClientName:  clientName,
		DialTimeout: c.timeout(),
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return dialTimeout
}

// Connect returns a client that has answered a ping. The client is closed
// again when the ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Pinger exposes the client to the readiness probe.
type Pinger struct {
	client redis.Cmdable
}

func NewPinger(client redis.Cmdable) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
