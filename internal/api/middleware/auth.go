package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/domain"
)

// ActorKey is the echo context key holding the request's domain.Actor.
const ActorKey = "actor"

// Authenticator verifies a bearer token and resolves the identity behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

// Auth requires a valid bearer token and injects the resolved actor.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return authenticate(auth, true)
}

// OptionalAuth injects the actor when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalAuth(auth Authenticator) echo.MiddlewareFunc {
	return authenticate(auth, false)
}

func authenticate(auth Authenticator, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				c.Set(ActorKey, domain.AnonymousActor())
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			actor, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}
			c.Set(ActorKey, actor)

			return next(c)
		}
	}
}
