// Package metrics exposes Prometheus collectors for bookings, settlements
// and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReservationsCreated counts persisted bookings by slot type.
var ReservationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ecocharge_reservations_created_total",
	Help: "Reservations created, labelled by whether the slot was green.",
}, []string{"green"})

// CampaignBonusApplied counts bookings whose reward included a campaign bonus.
var CampaignBonusApplied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ecocharge_campaign_bonus_applied_total",
	Help: "Reservations whose provisional reward included a campaign bonus.",
})

// Settlements counts settlement attempts by outcome
// (completed, already_completed, not_found, error).
var Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ecocharge_settlements_total",
	Help: "Reward settlement attempts by result.",
}, []string{"result"})

// CoinsCredited sums coins credited to users by settlement.
var CoinsCredited = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ecocharge_coins_credited_total",
	Help: "Coins credited to user balances by settlement.",
})

// CampaignsExpired counts campaigns moved to ENDED by the scheduler.
var CampaignsExpired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ecocharge_campaigns_expired_total",
	Help: "Campaigns ended by the expiry job.",
})

// RequestDuration observes HTTP handler latency by route and status.
var RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ecocharge_http_request_duration_seconds",
	Help:    "HTTP request latency.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Middleware records RequestDuration for every request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			RequestDuration.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
