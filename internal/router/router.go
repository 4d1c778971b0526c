package router // package router registers the HTTP routes of the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/handler"
	"github.com/iliyamo/ecocharge-reservation/internal/metrics"
	"github.com/iliyamo/ecocharge-reservation/internal/middleware"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Campaigns    *handler.CampaignHandler
	Stations     *handler.StationHandler
	Users        *handler.UserHandler

	OperatorReservations *handler.OperatorReservationHandler
}

// Options carries the middleware shared across groups.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc // applied to auth and write endpoints
	Cache     echo.MiddlewareFunc // applied to public station reads
}

// New builds the Echo instance with global middleware and every route.
func New(db *sql.DB, h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID(), middleware.RequestLogger(), metrics.Middleware())

	if opts.RateLimit == nil {
		opts.RateLimit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if opts.Cache == nil {
		opts.Cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	RegisterRoutes(e, db)
	RegisterAuth(e, h.Auth, opts)
	RegisterPublic(e, h.Stations, h.Users, opts)
	RegisterMember(e, h, opts)
	RegisterOperator(e, h, opts)
	RegisterOperatorReservations(e, h.OperatorReservations, opts)
	return e
}

// RegisterRoutes registers the unauthenticated infrastructure endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers /v1/auth. Register, login and refresh need no
// session; logout does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, opts Options) {
	g := e.Group("/v1/auth", opts.RateLimit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(opts.JWTSecret))
}

// RegisterPublic registers guest browsing endpoints. Station reads go
// through the response cache.
func RegisterPublic(e *echo.Echo, s *handler.StationHandler, u *handler.UserHandler, opts Options) {
	e.GET("/v1/stations", s.List, opts.Cache)
	e.GET("/v1/stations/:id", s.Get, opts.Cache)
	e.GET("/v1/stations/:id/slots", s.Slots)
	e.GET("/v1/badges", u.Badges, opts.Cache)
	e.GET("/v1/users/leaderboard", u.Leaderboard)
}

// RegisterMember registers endpoints open to any signed-in role.
func RegisterMember(e *echo.Echo, h Handlers, opts Options) {
	g := e.Group("/v1",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(model.RoleDriver, model.RoleOperator),
	)
	g.GET("/users/me", h.Users.Me)
	g.PUT("/users/me", h.Users.UpdateMe, opts.RateLimit)
	g.GET("/reservations", h.Reservations.List)
	g.POST("/reservations", h.Reservations.Create, opts.RateLimit)
	g.POST("/reservations/:id/complete", h.Reservations.Complete, opts.RateLimit)
	g.GET("/campaigns/for-user", h.Campaigns.ForUser)
	g.GET("/stations/recommend", h.Stations.Recommend)
}
