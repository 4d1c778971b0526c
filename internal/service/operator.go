package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
	"github.com/iliyamo/ecocharge-reservation/internal/slots"
)

// StationSummary is one row of the operator dashboard. Load is the grid
// load of the current hour; Revenue bills every reservation at the slot
// price of its booked hour.
type StationSummary struct {
	Station               *model.Station
	Load                  int
	Density               slots.Density
	ReservationCount      int
	GreenReservationCount int
	Revenue               decimal.Decimal
}

// DashboardStats aggregates the summaries. GreenShare is a whole percentage.
type DashboardStats struct {
	TotalReservations int
	GreenReservations int
	GreenShare        int
	TotalRevenue      decimal.Decimal
	AvgLoad           int
}

type Dashboard struct {
	Stats    DashboardStats
	Stations []StationSummary
}

// Dashboard summarizes the caller's stations and the reservations made at
// them.
func (s *StationService) Dashboard(ctx context.Context, sess session.Session) (*Dashboard, error) {
	owned, err := s.ListOwned(ctx, sess)
	if err != nil {
		return nil, err
	}
	reservations, err := s.Reservations.ListByStationOwner(ctx, sess.UserID, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &Dashboard{Stations: make([]StationSummary, 0, len(owned))}
	index := make(map[uint64]int, len(owned))
	loadSum := 0
	for _, st := range owned {
		load := s.loadAt(st.ID, now)
		loadSum += load
		index[st.ID] = len(out.Stations)
		out.Stations = append(out.Stations, StationSummary{
			Station: st,
			Load:    load,
			Density: slots.DensityOf(load),
			Revenue: decimal.Zero,
		})
	}

	stats := &out.Stats
	stats.TotalRevenue = decimal.Zero
	for _, r := range reservations {
		i, ok := index[r.StationID]
		if !ok {
			continue
		}
		sum := &out.Stations[i]
		price := slots.Price(sum.Station.Price, s.loadAt(r.StationID, slotStart(r)))
		sum.ReservationCount++
		sum.Revenue = sum.Revenue.Add(price)
		stats.TotalReservations++
		stats.TotalRevenue = stats.TotalRevenue.Add(price)
		if r.IsGreen {
			sum.GreenReservationCount++
			stats.GreenReservations++
		}
	}
	if stats.TotalReservations > 0 {
		stats.GreenShare = int(decimal.NewFromInt(int64(stats.GreenReservations * 100)).
			Div(decimal.NewFromInt(int64(stats.TotalReservations))).Round(0).IntPart())
	}
	if len(owned) > 0 {
		stats.AvgLoad = int(decimal.NewFromInt(int64(loadSum)).
			Div(decimal.NewFromInt(int64(len(owned)))).Round(0).IntPart())
	}
	return out, nil
}

// OperatorReservations lists reservations at the caller's stations, newest
// first. A non-nil stationID must name one of them.
func (s *StationService) OperatorReservations(ctx context.Context, sess session.Session, stationID *uint64) ([]*model.Reservation, error) {
	if !sess.IsOperator() {
		return nil, repository.ErrForbidden
	}
	if stationID != nil {
		st, err := s.Stations.GetByID(ctx, *stationID)
		if err != nil {
			return nil, err
		}
		if st.OwnerID == nil || *st.OwnerID != sess.UserID {
			return nil, repository.ErrForbidden
		}
	}
	return s.Reservations.ListByStationOwner(ctx, sess.UserID, stationID)
}

// slotStart is the booked hour: the reservation date at the hour of its
// "HH:MM" label. Unparseable labels fall back to the stored date.
func slotStart(r *model.Reservation) time.Time {
	d := r.Date.UTC()
	label := r.Hour
	if len(label) > 5 {
		label = label[:5]
	}
	t, err := time.Parse("15:04", label)
	if err != nil {
		return d
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), 0, 0, 0, time.UTC)
}
