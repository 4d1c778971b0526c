package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/utils"
)

const userColumns = "id,name,email,password_hash,role,coins,co2_saved,xp,created_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes the password, inserts the user with zero balances and
// returns the new id.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (uint64, error) {
	email = NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, coins, co2_saved, xp, created_at) VALUES (?,?,?,?,0,0,0,?)",
		strings.TrimSpace(name), email, hash, string(role), dbNow())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Leaderboard returns the top users by xp, ties broken by id.
func (r *UserRepo) Leaderboard(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY xp DESC, id ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile overwrites a user's name and email. The email is
// normalized; a clash with another account yields ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET name=?, email=? WHERE id=?",
		strings.TrimSpace(name), NormalizeEmail(email), id)
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

// CreditRewardsTx increments the user's balances inside tx and returns the
// resulting totals. ErrNotFound means no user row matched, which must abort
// the surrounding settlement.
func (r *UserRepo) CreditRewardsTx(ctx context.Context, tx *sql.Tx, userID uint64, coins int64, co2 float64, xp int64) (model.Balances, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET coins = coins + ?, co2_saved = co2_saved + ?, xp = xp + ? WHERE id = ?",
		coins, co2, xp, userID)
	if err != nil {
		return model.Balances{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Balances{}, err
	}
	if n == 0 {
		return model.Balances{}, ErrNotFound
	}
	b := model.Balances{UserID: userID}
	err = tx.QueryRowContext(ctx,
		"SELECT coins, co2_saved, xp FROM users WHERE id = ?", userID).Scan(&b.Coins, &b.CO2Saved, &b.XP)
	if err != nil {
		return model.Balances{}, err
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Coins, &u.CO2Saved, &u.XP, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	u.Role = model.Role(role)
	return u, err
}
