package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
	"github.com/iliyamo/ecocharge-reservation/internal/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput is a sign-up request. Role is optional.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by every successful credential exchange.
type AuthResult struct {
	User     model.User
	Badges   []model.Badge
	Stations []*model.Station
	Access   utils.AccessToken
	Refresh  utils.RefreshToken
}

// AuthService registers users and issues access/refresh token pairs.
type AuthService struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Badges   *repository.BadgeRepo
	Stations *repository.StationRepo
}

func NewAuthService(cfg config.Config, db *sql.DB) *AuthService {
	return &AuthService{
		Cfg:      cfg,
		Users:    repository.NewUserRepo(db),
		Tokens:   repository.NewTokenRepo(db),
		Badges:   repository.NewBadgeRepo(db),
		Stations: repository.NewStationRepo(db),
	}
}

// Register creates a user with zero balances and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := repository.NormalizeEmail(in.Email)
	switch {
	case name == "" || email == "" || in.Password == "":
		return nil, invalidf("name, email and password are required")
	case !emailPattern.MatchString(email):
		return nil, invalidf("email is not valid")
	case len(in.Password) < utils.MinPasswordLength:
		return nil, invalidf("password must be at least %d characters", utils.MinPasswordLength)
	}
	role, err := InferRole(email, in.Role, s.Cfg.Rewards.OperatorDomains)
	if err != nil {
		return nil, err
	}

	id, err := s.Users.Create(ctx, name, email, in.Password, role, s.Cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.Info("user registered", "user_id", id, "role", role)
	return s.issue(ctx, u, false)
}

// Login verifies credentials. Unknown emails and wrong passwords both
// yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidf("email and password are required")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return s.issue(ctx, u, true)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalidf("refreshToken is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	// only the caller that actually revokes the token may rotate it
	err = s.Tokens.RevokeByHash(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u, false)
}

// Logout revokes the presented refresh token, or every token of the caller
// when raw is empty. Tokens belonging to someone else are left alone.
func (s *AuthService) Logout(ctx context.Context, sess session.Session, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Tokens.RevokeAllForUser(ctx, sess.UserID)
	}
	hash := utils.HashRefreshRaw(raw)
	owner, err := s.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner != sess.UserID {
		return repository.ErrForbidden
	}
	if err := s.Tokens.RevokeByHash(ctx, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, u model.User, withProfile bool) (*AuthResult, error) {
	access, err := utils.NewAccessToken(s.Cfg.JWTSecret, u.ID, string(u.Role), s.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	out := &AuthResult{User: u, Access: access, Refresh: refresh, Badges: []model.Badge{}, Stations: []*model.Station{}}
	if !withProfile {
		return out, nil
	}
	badges, err := s.Badges.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if len(badges) > 0 {
		out.Badges = badges
	}
	if u.Role == model.RoleOperator {
		stations, err := s.Stations.ListByOwner(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if len(stations) > 0 {
			out.Stations = stations
		}
	}
	return out, nil
}
