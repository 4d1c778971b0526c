package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// OperatorReservationHandler lists reservations from the perspective of a
// station operator. Only reservations at the caller's own stations are
// visible.
type OperatorReservationHandler struct {
	Svc *service.StationService
}

func NewOperatorReservationHandler(svc *service.StationService) *OperatorReservationHandler {
	return &OperatorReservationHandler{Svc: svc}
}

// List handles GET /v1/operator/reservations?stationId=. Without stationId
// every owned station is included.
func (h *OperatorReservationHandler) List(c echo.Context) error {
	var stationID *uint64
	if v := c.QueryParam("stationId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return badRequest(c, "invalid station id")
		}
		stationID = &id
	}
	return h.list(c, stationID)
}

// ListStation handles GET /v1/operator/stations/:id/reservations. The
// station must exist (404) and belong to the caller (403).
func (h *OperatorReservationHandler) ListStation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid station id")
	}
	return h.list(c, &id)
}

func (h *OperatorReservationHandler) list(c echo.Context, stationID *uint64) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	items, err := h.Svc.OperatorReservations(ctx, sess, stationID)
	if err != nil {
		return respondError(c, err)
	}
	// always a count and an array, empty when nothing was booked
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   toReservationViews(items),
		"count":   len(items),
	})
}
