package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/middleware"
	"github.com/iliyamo/ecocharge-reservation/internal/recommend"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// StationHandler serves public station browsing, slot windows,
// recommendations and operator station management.
type StationHandler struct {
	Svc         *service.StationService
	Recommender *recommend.Service
	CacheCfg    config.CacheConfig
	Redis       *redis.Client // nil when caching is off
}

func NewStationHandler(svc *service.StationService, rec *recommend.Service, cacheCfg config.CacheConfig, rdb *redis.Client) *StationHandler {
	return &StationHandler{Svc: svc, Recommender: rec, CacheCfg: cacheCfg, Redis: rdb}
}

type stationReq struct {
	Name    string   `json:"name"`
	Price   *float64 `json:"price"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address *string  `json:"address"`
}

func (r stationReq) input() service.StationInput {
	return service.StationInput{Name: r.Name, Price: r.Price, Lat: r.Lat, Lng: r.Lng, Address: r.Address}
}

// List returns all stations. GET /v1/stations
func (h *StationHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stations": toStationViews(list)})
}

// Get returns one station. GET /v1/stations/:id
func (h *StationHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid station id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	st, err := h.Svc.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "station": toStationView(st)})
}

// Slots returns the next 24 hourly slots. GET /v1/stations/:id/slots
func (h *StationHandler) Slots(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid station id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	st, list, err := h.Svc.Slots(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "station": toStationView(st), "slots": list})
}

// Recommend ranks stations for the caller through the external scorer.
// GET /v1/stations/recommend?lat=&lng=&slot=&limit=
func (h *StationHandler) Recommend(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	limit, err := queryInt(c, "limit", recommend.DefaultLimit)
	if err != nil {
		return badRequest(c, "limit must be an integer")
	}
	req := recommend.ScoreRequest{UserID: sess.UserID, Limit: limit, TimeSlot: time.Now().UTC().Truncate(time.Hour)}
	if v := c.QueryParam("lat"); v != "" {
		if req.UserLat, err = strconv.ParseFloat(v, 64); err != nil {
			return badRequest(c, "lat must be a number")
		}
	}
	if v := c.QueryParam("lng"); v != "" {
		if req.UserLng, err = strconv.ParseFloat(v, 64); err != nil {
			return badRequest(c, "lng must be a number")
		}
	}
	if v := c.QueryParam("slot"); v != "" {
		if req.TimeSlot, err = time.Parse(time.RFC3339, v); err != nil {
			return badRequest(c, "slot must be an RFC3339 time")
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	results, err := h.Recommender.Recommend(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "results": results, "algorithm": h.Recommender.Algorithm()})
}

// ListOwned returns the operator dashboard: owned stations with their
// reservation counts, current load and revenue, plus totals.
// GET /v1/operator/stations
func (h *StationHandler) ListOwned(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	d, err := h.Svc.Dashboard(ctx, sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"stats":    toDashboardStatsView(d.Stats),
		"stations": toStationSummaryViews(d.Stations),
	})
}

// Create adds a station. POST /v1/operator/stations
func (h *StationHandler) Create(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	var req stationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	st, err := h.Svc.Create(ctx, sess, req.input())
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "station": toStationView(st)})
}

// Update overwrites a station. PUT /v1/operator/stations/:id
func (h *StationHandler) Update(c echo.Context) error {
	sess, err := callerSession(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid station id")
	}
	var req stationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	st, err := h.Svc.Update(ctx, sess, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "station": toStationView(st)})
}

func (h *StationHandler) purge(c echo.Context) {
	if h.Redis == nil {
		return
	}
	if err := middleware.PurgeCache(c.Request().Context(), h.CacheCfg, h.Redis); err != nil {
		logger.ExternalServiceResult("redis", "cache purge", err)
	}
}
