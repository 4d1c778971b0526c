package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Profile is the caller's own view of their account.
type Profile struct {
	User         model.User
	Badges       []model.Badge
	Reservations []*model.Reservation
	Stations     []*model.Station
}

// ProfileService serves profile, leaderboard and badge catalog reads.
type ProfileService struct {
	Users        *repository.UserRepo
	Badges       *repository.BadgeRepo
	Reservations *repository.ReservationRepo
	Stations     *repository.StationRepo
}

func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{
		Users:        repository.NewUserRepo(db),
		Badges:       repository.NewBadgeRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Stations:     repository.NewStationRepo(db),
	}
}

// Me loads the caller's profile. Operators also get their stations.
func (s *ProfileService) Me(ctx context.Context, sess session.Session) (*Profile, error) {
	u, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u}
	if p.Badges, err = s.Badges.ListByUser(ctx, u.ID); err != nil {
		return nil, err
	}
	if p.Reservations, err = s.Reservations.ListByUser(ctx, u.ID); err != nil {
		return nil, err
	}
	if u.Role == model.RoleOperator {
		if p.Stations, err = s.Stations.ListByOwner(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ProfileInput changes the caller's account. Nil fields are left as they
// are.
type ProfileInput struct {
	Name  *string
	Email *string
}

// UpdateMe changes the caller's name and/or email and returns the stored
// user. A taken email yields repository.ErrEmailExists.
func (s *ProfileService) UpdateMe(ctx context.Context, sess session.Session, in ProfileInput) (model.User, error) {
	if in.Name == nil && in.Email == nil {
		return model.User{}, invalidf("name or email is required")
	}
	u, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		return model.User{}, err
	}
	name, email := u.Name, u.Email
	if in.Name != nil {
		if name = strings.TrimSpace(*in.Name); name == "" {
			return model.User{}, invalidf("name must not be empty")
		}
	}
	if in.Email != nil {
		if email = repository.NormalizeEmail(*in.Email); !emailPattern.MatchString(email) {
			return model.User{}, invalidf("email is not valid")
		}
	}
	if err := s.Users.UpdateProfile(ctx, u.ID, name, email); err != nil {
		return model.User{}, err
	}
	return s.Users.GetByID(ctx, u.ID)
}

// Leaderboard returns the top users by xp. limit is clamped to
// [1, MaxLeaderboardLimit]; zero selects the default.
func (s *ProfileService) Leaderboard(ctx context.Context, limit int) ([]model.User, error) {
	switch {
	case limit == 0:
		limit = DefaultLeaderboardLimit
	case limit < 1:
		limit = 1
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}
	return s.Users.Leaderboard(ctx, limit)
}

// BadgeCatalog returns the badge catalog.
func (s *ProfileService) BadgeCatalog(ctx context.Context) ([]model.Badge, error) {
	return s.Badges.ListAll(ctx)
}
