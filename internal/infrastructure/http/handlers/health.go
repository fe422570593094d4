package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/ports"
)

const probeTimeout = 3 * time.Second

// Probe answers the liveness and readiness checks. Ping errors are echoed
// only when exposeDetail is set.
type Probe struct {
	deps         map[string]ports.Pinger
	timeout      time.Duration
	exposeDetail bool
}

func NewProbe(deps map[string]ports.Pinger, exposeDetail bool) *Probe {
	return &Probe{deps: deps, timeout: probeTimeout, exposeDetail: exposeDetail}
}

type check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readiness struct {
	Status       string           `json:"status"`
	Dependencies map[string]check `json:"dependencies"`
}

// Live always answers 200 while the process serves requests.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (p *Probe) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings each dependency and answers 503 if any of them fails.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readiness
// @Failure      503  {object}  readiness
// @Router       /health/ready [get]
func (p *Probe) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), p.timeout)
	defer cancel()

	res := readiness{Status: "ok", Dependencies: make(map[string]check, len(p.deps))}
	code := http.StatusOK
	for name, dep := range p.deps {
		if err := dep.Ping(ctx); err != nil {
			res.Dependencies[name] = p.failed(err)
			res.Status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		res.Dependencies[name] = check{Status: "ok"}
	}
	return c.JSON(code, res)
}

func (p *Probe) failed(err error) check {
	if !p.exposeDetail {
		return check{Status: "unhealthy"}
	}
	return check{Status: "unhealthy", Error: err.Error()}
}
