package ports

import (
	"context"
	"time"

	"github.com/tablehub/backend/internal/core/domain"
)

// RegisterInput is the registration payload after transport validation.
// Username and Role are optional.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
	Role      string
}

// LoginResult is a successful credential exchange.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, handle, password string) (*LoginResult, error)
	CreateSession(ctx context.Context, actor domain.Actor, action string) (*domain.Session, error)
	// Authenticate verifies a bearer token and reloads the identity it names.
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}
