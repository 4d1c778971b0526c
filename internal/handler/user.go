package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// UserHandler serves the profile, leaderboard and badge catalog.
type UserHandler struct {
	Svc *service.ProfileService
}

func NewUserHandler(svc *service.ProfileService) *UserHandler { return &UserHandler{Svc: svc} }

// Me returns the caller's profile. GET /v1/users/me
func (h *UserHandler) Me(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.Svc.Me(ctx, sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"user":         toUserView(p.User),
		"badges":       toBadgeViews(p.Badges),
		"reservations": toReservationViews(p.Reservations),
		"stations":     toStationViews(p.Stations),
	})
}

type profileReq struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UpdateMe changes the caller's name and/or email. PUT /v1/users/me
func (h *UserHandler) UpdateMe(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Svc.UpdateMe(ctx, sess, service.ProfileInput{Name: req.Name, Email: req.Email})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": toUserView(u)})
}

// Leaderboard ranks users by xp. GET /v1/users/leaderboard?limit=
func (h *UserHandler) Leaderboard(c echo.Context) error {
	limit, err := queryInt(c, "limit", service.DefaultLeaderboardLimit)
	if err != nil {
		return badRequest(c, "limit must be an integer")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	users, err := h.Svc.Leaderboard(ctx, limit)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]leaderView, 0, len(users))
	for i, u := range users {
		out = append(out, leaderView{Rank: i + 1, ID: u.ID, Name: u.Name, XP: u.XP, Coins: u.Coins, CO2Saved: u.CO2Saved})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "leaderboard": out})
}

// Badges returns the catalog. GET /v1/badges
func (h *UserHandler) Badges(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.BadgeCatalog(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "badges": toBadgeViews(list)})
}
