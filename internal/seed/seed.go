// Package seed loads the badge catalog and a handful of demo stations.
// Running it twice is harmless.
package seed

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
)

// Badges is the static catalog campaigns can target.
var Badges = []model.Badge{
	{Name: "Green Driver", Icon: "🌱", Description: "Charged during a low-load green slot."},
	{Name: "Night Owl", Icon: "🦉", Description: "Charged between midnight and 6 AM."},
	{Name: "Early Bird", Icon: "🐦", Description: "Booked a slot before 8 AM."},
	{Name: "Eco Hero", Icon: "🏆", Description: "Saved more than 50 kg of CO2."},
	{Name: "Loyal Charger", Icon: "⚡", Description: "Completed ten charging sessions."},
}

// demoStations are ownerless stations for local development.
var demoStations = []model.Station{
	{Name: "Zorlu Center", Price: decimal.RequireFromString("7.50"), Lat: 41.0677, Lng: 29.0169},
	{Name: "Kadıköy Rıhtım", Price: decimal.RequireFromString("6.90"), Lat: 40.9917, Lng: 29.0270},
	{Name: "Levent Plaza", Price: decimal.RequireFromString("8.25"), Lat: 41.0820, Lng: 29.0110},
	{Name: "Ataşehir Hub", Price: decimal.RequireFromString("7.10"), Lat: 40.9923, Lng: 29.1244},
	{Name: "Maslak Yard", Price: decimal.RequireFromString("7.80"), Lat: 41.1086, Lng: 29.0210},
}

// Result counts what Run inserted.
type Result struct {
	Badges   int
	Stations int
}

// Run inserts missing badges by name and, when the stations table is empty,
// the demo stations.
func Run(ctx context.Context, db *sql.DB) (Result, error) {
	var res Result
	badges := repository.NewBadgeRepo(db)
	for _, b := range Badges {
		b := b
		err := badges.Create(ctx, &b)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return res, err
		}
		res.Badges++
	}

	stations := repository.NewStationRepo(db)
	existing, err := stations.ListAll(ctx)
	if err != nil {
		return res, err
	}
	if len(existing) == 0 {
		for _, s := range demoStations {
			s := s
			if err := stations.Create(ctx, &s); err != nil {
				return res, err
			}
			res.Stations++
		}
	}
	logger.Info("seed complete", "badges", res.Badges, "stations", res.Stations)
	return res, nil
}
