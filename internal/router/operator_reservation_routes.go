package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/handler"
	"github.com/iliyamo/ecocharge-reservation/internal/middleware"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

// RegisterOperatorReservations registers the routes that let operators see
// reservations made at their stations. They live apart from the station
// and campaign management routes.
func RegisterOperatorReservations(e *echo.Echo, h *handler.OperatorReservationHandler, opts Options) {
	g := e.Group("/v1/operator",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(model.RoleOperator),
	)
	g.GET("/reservations", h.List)
	g.GET("/stations/:id/reservations", h.ListStation)
}
