package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/ports"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProbe_Ready(t *testing.T) {
	tests := []struct {
		name       string
		redisErr   error
		wantCode   int
		wantStatus string
	}{
		{"all healthy", nil, http.StatusOK, "ok"},
		{"redis down", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProbe(map[string]ports.Pinger{
				"store": pingerFunc(func(context.Context) error { return nil }),
				"redis": pingerFunc(func(context.Context) error { return tt.redisErr }),
			}, true)

			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
			if err := p.Ready(c); err != nil {
				t.Fatalf("Ready: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}

			var body readiness
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Fatalf("expected status %q, got %q", tt.wantStatus, body.Status)
			}
			if body.Dependencies["store"].Status != "ok" {
				t.Fatalf("store should be ok: %+v", body.Dependencies)
			}
			if tt.redisErr != nil && body.Dependencies["redis"].Error != tt.redisErr.Error() {
				t.Fatalf("redis error not reported: %+v", body.Dependencies["redis"])
			}
		})
	}
}

func TestProbe_ReadyHidesDetail(t *testing.T) {
	p := NewProbe(map[string]ports.Pinger{
		"store": pingerFunc(func(context.Context) error { return errors.New("dial tcp 10.0.0.5:5432: refused") }),
	}, false)

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := p.Ready(c); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("driver error leaked: %s", rec.Body.String())
	}

	var body readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := body.Dependencies["store"]; got.Status != "unhealthy" || got.Error != "" {
		t.Fatalf("expected bare unhealthy status, got %+v", got)
	}
}

func TestProbe_ReadyWithoutDeps(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := NewProbe(nil, false).Ready(c); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProbe_Live(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := NewProbe(nil, false).Live(c); err != nil {
		t.Fatalf("Live: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
