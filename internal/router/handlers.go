package router

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/handler"
	"github.com/iliyamo/ecocharge-reservation/internal/queue"
	"github.com/iliyamo/ecocharge-reservation/internal/recommend"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
)

// Deps are the external collaborators of the handlers. Events, Scorer and
// Redis may be nil.
type Deps struct {
	DB       *sql.DB
	Events   queue.Publisher
	Scorer   recommend.Scorer
	Redis    *redis.Client
	CacheCfg config.CacheConfig
}

// NewHandlers wires services and handlers over d.
func NewHandlers(cfg config.Config, d Deps) Handlers {
	stations := service.NewStationService(d.DB)
	return Handlers{
		Auth:         handler.NewAuthHandler(service.NewAuthService(cfg, d.DB)),
		Reservations: handler.NewReservationHandler(service.NewReservationService(d.DB, d.Events)),
		Campaigns: handler.NewCampaignHandler(
			service.NewCampaignService(d.DB),
			service.NewEligibilityService(d.DB),
		),
		Stations: handler.NewStationHandler(
			stations,
			recommend.NewService(d.Scorer),
			d.CacheCfg,
			d.Redis,
		),
		Users: handler.NewUserHandler(service.NewProfileService(d.DB)),

		OperatorReservations: handler.NewOperatorReservationHandler(stations),
	}
}
