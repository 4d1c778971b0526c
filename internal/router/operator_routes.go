package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/middleware"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

// RegisterOperator registers the operator dashboard under /v1/operator.
// Every route requires the OPERATOR role; ownership of individual
// stations and campaigns is checked by the services.
func RegisterOperator(e *echo.Echo, h Handlers, opts Options) {
	g := e.Group("/v1/operator",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(model.RoleOperator),
	)

	g.GET("/stations", h.Stations.ListOwned)
	g.POST("/stations", h.Stations.Create, opts.RateLimit)
	g.PUT("/stations/:id", h.Stations.Update, opts.RateLimit)

	g.GET("/campaigns", h.Campaigns.List)
	g.GET("/campaigns/:id", h.Campaigns.Get)
	g.POST("/campaigns", h.Campaigns.Create, opts.RateLimit)
	g.PUT("/campaigns/:id", h.Campaigns.Update, opts.RateLimit)
	g.DELETE("/campaigns/:id", h.Campaigns.Delete)
}
