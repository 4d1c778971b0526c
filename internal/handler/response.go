package handler // package handler holds the HTTP handlers of the v1 API

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/middleware"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

const requestTimeout = 5 * time.Second

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Success bool     `json:"success"`
	Error   apiError `json:"error"`
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, errorBody{Error: apiError{Code: code, Message: msg}})
}

// respondError maps err onto the error envelope. Unexpected errors are
// logged and hidden from the client.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, repository.ErrAlreadyCompleted):
		return fail(c, http.StatusBadRequest, "ALREADY_COMPLETED", "reservation is already completed")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusConflict, "CONFLICT", "email already registered")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, service.ErrUnauthorized):
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
	}
	logger.ErrorContext(c.Request().Context(), "request failed",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"method", c.Request().Method,
		"route", c.Path(),
		"error", err)
	return fail(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, "INVALID_INPUT", msg)
}

// requestContext bounds store calls of one request.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// callerSession returns the caller's session; routes using it sit behind
// JWTAuth, so a missing session is a 401.
func callerSession(c echo.Context) (session.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return session.Session{}, service.ErrUnauthorized
	}
	return s, nil
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
