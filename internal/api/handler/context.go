package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/api/middleware"
	"github.com/tablehub/backend/internal/core/domain"
)

// actorFrom returns the actor injected by the Auth middleware, or an
// anonymous guest when the route allows unauthenticated callers.
func actorFrom(c echo.Context) domain.Actor {
	if a, ok := c.Get(middleware.ActorKey).(domain.Actor); ok {
		return a
	}
	return domain.AnonymousActor()
}
