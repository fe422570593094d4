package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/domain"
)

// RequireRole admits actors whose role is min or above. It must run after
// Auth or OptionalAuth.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := c.Get(ActorKey).(domain.Actor)
			if !ok {
				actor = domain.AnonymousActor()
			}
			if !actor.Role.AtLeast(min) {
				return fmt.Errorf("%s requires %s: %w", c.Path(), min, domain.ErrPermissionDenied)
			}
			return next(c)
		}
	}
}
