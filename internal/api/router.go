package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/tablehub/backend/internal/api/handler"
	"github.com/tablehub/backend/internal/api/middleware"
	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
	infrahttp "github.com/tablehub/backend/internal/infrastructure/http"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth    ports.AuthService
	Tables  ports.TableService
	Records ports.RecordService
	// Health maps a dependency name to its readiness probe.
	Health map[string]ports.Pinger
	Logger zerolog.Logger
	// ExposeErrorDetail echoes the cause of 5xx responses in errors.detail.
	ExposeErrorDetail bool
	// Metrics receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Metrics *prometheus.Registry
}

// collections maps the per-entity route segment to its entity.
var collections = []struct {
	path   string
	entity registry.Entity
}{
	{"products", registry.Product},
	{"pricebooks", registry.PriceBook},
	{"productitems", registry.ProductItem},
	{"shoppingcarts", registry.ShoppingCart},
	{"cases", registry.Case},
	{"bankcards", registry.BankCard},
	{"notifications", registry.Notification},
	{"recordtypes", registry.RecordType},
	{"addresses", registry.Address},
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger, deps.ExposeErrorDetail)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	if deps.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "tablehub",
			Registerer: deps.Metrics,
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Metrics}))
	} else {
		e.Use(echoprometheus.NewMiddleware("tablehub"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Operational routes (no auth required) ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	infrahttp.RegisterHealth(e, deps.Health, deps.ExposeErrorDetail)

	authRequired := middleware.Auth(deps.Auth)
	authOptional := middleware.OptionalAuth(deps.Auth)

	api := e.Group("/api")

	// --- Identity ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/session", authHandler.Session, authRequired, middleware.RequireRole(domain.RoleUser))

	profiles := handler.NewRecordHandler(deps.Records, registry.Profile, "profiles")
	registerRecord(api.Group("/profiles", authRequired, middleware.RequireRole(domain.RoleSuperAdmin)), profiles)

	// --- Generic dispatch ---
	tableHandler := handler.NewTableHandler(deps.Tables)
	tables := api.Group("/tables/:table", authOptional)
	tables.POST("/listview", tableHandler.ListView)
	tables.POST("/detail", tableHandler.Detail)
	tables.POST("/:id/detail", tableHandler.DetailByPath)

	// --- Per-entity endpoints; the access policy decides per actor ---
	for _, col := range collections {
		h := handler.NewRecordHandler(deps.Records, col.entity, col.path)
		registerRecord(api.Group("/"+col.path, authOptional), h)
	}

	return e
}

func registerRecord(g *echo.Group, h *handler.RecordHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// requestLogger feeds echo's request log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("ip", v.RemoteIP).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
