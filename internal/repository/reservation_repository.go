package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

const (
	reservationColumns      = "id, user_id, station_id, slot_date, slot_hour, is_green, earned_coins, status, created_at, completed_at"
	ownerReservationColumns = "r.id, r.user_id, r.station_id, r.slot_date, r.slot_hour, r.is_green, r.earned_coins, r.status, r.created_at, r.completed_at"
)

// ReservationRepo is the reservation ledger: one row per booking request.
type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a PENDING reservation and populates ID, Status and
// CreatedAt. Callers compute EarnedCoins beforehand.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	res.Status = model.ReservationPending
	res.CreatedAt = dbNow()
	res.Date = DBTime(res.Date)
	out, err := r.db.ExecContext(ctx,
		"INSERT INTO reservations (user_id, station_id, slot_date, slot_hour, is_green, earned_coins, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		res.UserID, res.StationID, res.Date, res.Hour, res.IsGreen, res.EarnedCoins, string(res.Status), res.CreatedAt)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID fetches one reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// ListByUser returns a user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// ListByStationOwner returns reservations made at stations owned by ownerID,
// newest first. A non-nil stationID narrows the list to that station.
func (r *ReservationRepo) ListByStationOwner(ctx context.Context, ownerID uint64, stationID *uint64) ([]*model.Reservation, error) {
	q := "SELECT " + ownerReservationColumns + " FROM reservations r JOIN stations s ON s.id = r.station_id WHERE s.owner_id = ?"
	args := []any{ownerID}
	if stationID != nil {
		q += " AND r.station_id = ?"
		args = append(args, *stationID)
	}
	return r.list(ctx, q+" ORDER BY r.created_at DESC, r.id DESC", args...)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]*model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// CompleteTx transitions a PENDING reservation to COMPLETED inside tx and
// overwrites its earned coins with the settled amount. The update is
// conditional on status = 'PENDING' so that of two concurrent settlements
// only one can match; the loser gets ErrAlreadyCompleted. A missing row
// yields ErrNotFound.
func (r *ReservationRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64, coins int64, at time.Time) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if res.Status == model.ReservationCompleted {
		return nil, ErrAlreadyCompleted
	}

	at = DBTime(at)
	out, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status = 'COMPLETED', earned_coins = ?, completed_at = ? WHERE id = ? AND status = 'PENDING'",
		coins, at, id)
	if err != nil {
		return nil, err
	}
	n, err := out.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAlreadyCompleted
	}
	res.Status = model.ReservationCompleted
	res.EarnedCoins = coins
	res.CompletedAt = &at
	return res, nil
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res       model.Reservation
		status    string
		completed sql.NullTime
	)
	if err := row.Scan(&res.ID, &res.UserID, &res.StationID, &res.Date, &res.Hour, &res.IsGreen,
		&res.EarnedCoins, &status, &res.CreatedAt, &completed); err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.Date = res.Date.UTC()
	res.CompletedAt = timePtr(completed)
	return &res, nil
}
