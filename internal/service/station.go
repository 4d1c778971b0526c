package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
	"github.com/iliyamo/ecocharge-reservation/internal/slots"
)

// StationInput is an operator's station definition.
type StationInput struct {
	Name    string
	Price   *float64
	Lat     *float64
	Lng     *float64
	Address *string
}

// StationService serves station browsing, slot windows and operator
// station management.
type StationService struct {
	Stations     *repository.StationRepo
	Reservations *repository.ReservationRepo
	Load         slots.LoadFunc
	Now          func() time.Time
}

func NewStationService(db *sql.DB) *StationService {
	return &StationService{
		Stations:     repository.NewStationRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Load:         slots.HashLoad,
		Now:          time.Now,
	}
}

// List returns every station.
func (s *StationService) List(ctx context.Context) ([]*model.Station, error) {
	return s.Stations.ListAll(ctx)
}

// Get returns one station or repository.ErrNotFound.
func (s *StationService) Get(ctx context.Context, id uint64) (*model.Station, error) {
	return s.Stations.GetByID(ctx, id)
}

// Slots returns the station and its next 24 hourly slots.
func (s *StationService) Slots(ctx context.Context, id uint64) (*model.Station, []slots.Slot, error) {
	st, err := s.Stations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return st, slots.Generate(st.ID, st.Price, s.now(), s.Load), nil
}

func (s *StationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *StationService) loadAt(stationID uint64, t time.Time) int {
	if s.Load != nil {
		return s.Load(stationID, t)
	}
	return slots.HashLoad(stationID, t)
}

// ListOwned returns the caller's stations.
func (s *StationService) ListOwned(ctx context.Context, sess session.Session) ([]*model.Station, error) {
	if !sess.IsOperator() {
		return nil, repository.ErrForbidden
	}
	return s.Stations.ListByOwner(ctx, sess.UserID)
}

// Create stores a new station owned by the caller.
func (s *StationService) Create(ctx context.Context, sess session.Session, in StationInput) (*model.Station, error) {
	st, err := buildStation(sess, in)
	if err != nil {
		return nil, err
	}
	owner := sess.UserID
	st.OwnerID = &owner
	if err := s.Stations.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Update overwrites one of the caller's stations.
func (s *StationService) Update(ctx context.Context, sess session.Session, id uint64, in StationInput) (*model.Station, error) {
	st, err := buildStation(sess, in)
	if err != nil {
		return nil, err
	}
	st.ID = id
	if err := s.Stations.Update(ctx, st, sess.UserID); err != nil {
		return nil, err
	}
	return st, nil
}

func buildStation(sess session.Session, in StationInput) (*model.Station, error) {
	if !sess.IsOperator() {
		return nil, repository.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if in.Price == nil || *in.Price <= 0 {
		return nil, invalidf("price must be greater than zero")
	}
	if in.Lat == nil || *in.Lat < -90 || *in.Lat > 90 {
		return nil, invalidf("lat must be between -90 and 90")
	}
	if in.Lng == nil || *in.Lng < -180 || *in.Lng > 180 {
		return nil, invalidf("lng must be between -180 and 180")
	}
	st := &model.Station{
		Name:  name,
		Price: decimal.NewFromFloat(*in.Price).Round(2),
		Lat:   *in.Lat,
		Lng:   *in.Lng,
	}
	if in.Address != nil {
		if a := strings.TrimSpace(*in.Address); a != "" {
			st.Address = &a
		}
	}
	return st, nil
}
