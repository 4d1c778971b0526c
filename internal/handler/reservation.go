package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// ReservationHandler exposes booking and settlement.
type ReservationHandler struct {
	Svc *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Svc: svc}
}

type createReservationReq struct {
	UserID    uint64 `json:"userId"`
	StationID uint64 `json:"stationId"`
	Date      string `json:"date"`
	Hour      string `json:"hour"`
	IsGreen   *bool  `json:"isGreen"`
}

type completeReservationReq struct {
	EarnedCoins *int64 `json:"earnedCoins"`
	EarnedXP    *int64 `json:"earnedXp"`
}

// Create books a slot. POST /v1/reservations
func (h *ReservationHandler) Create(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body: userId, stationId, date, hour and isGreen (boolean) are required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Svc.CreateReservation(ctx, sess, service.CreateReservationInput{
		UserID:    req.UserID,
		StationID: req.StationID,
		Date:      req.Date,
		Hour:      req.Hour,
		IsGreen:   req.IsGreen,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "reservation": toReservationView(res)})
}

// Complete settles a reservation. POST /v1/reservations/:id/complete
func (h *ReservationHandler) Complete(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req completeReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body: earnedCoins and earnedXp must be integers")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Svc.CompleteReservation(ctx, sess, id, req.EarnedCoins, req.EarnedXP)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"reservation": toReservationView(out.Reservation),
		"user": balanceView{
			ID:       out.Balances.UserID,
			Coins:    out.Balances.Coins,
			CO2Saved: out.Balances.CO2Saved,
			XP:       out.Balances.XP,
		},
	})
}

// List returns the caller's reservations. GET /v1/reservations
func (h *ReservationHandler) List(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Svc.ListForUser(ctx, sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "reservations": toReservationViews(list)})
}
