package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// AuthHandler serves registration and the token lifecycle.
type AuthHandler struct {
	Svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{Svc: svc} }

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // optional: DRIVER | OPERATOR
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type authResp struct {
	Success  bool          `json:"success"`
	User     userView      `json:"user"`
	Badges   []badgeView   `json:"badges"`
	Stations []stationView `json:"stations"`
	Access   tokenPart     `json:"access"`
	Refresh  tokenPart     `json:"refresh"`
}

func toAuthResp(r *service.AuthResult) authResp {
	return authResp{
		Success:  true,
		User:     toUserView(r.User),
		Badges:   toBadgeViews(r.Badges),
		Stations: toStationViews(r.Stations),
		Access:   accessPart(r.Access),
		Refresh:  refreshPart(r.Refresh),
	}
}

// Register creates the account and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Svc.Register(ctx, service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(res))
}

// Login verifies credentials and returns the profile with a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// Logout revokes the given refresh token, or all of the caller's tokens
// when none is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Svc.Logout(ctx, sess, req.RefreshToken); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
