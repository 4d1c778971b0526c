package repository

// Station registry queries. A station is a charging location, optionally
// owned by an operator account.

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

const stationColumns = "id, owner_id, name, price, lat, lng, address, created_at"

// StationRepo encapsulates all database queries related to stations.
type StationRepo struct {
	db *sql.DB
}

func NewStationRepo(db *sql.DB) *StationRepo {
	return &StationRepo{db: db}
}

// Create inserts a new station and populates its ID and CreatedAt.
func (r *StationRepo) Create(ctx context.Context, s *model.Station) error {
	const q = "INSERT INTO stations (owner_id, name, price, lat, lng, address, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	s.CreatedAt = dbNow()
	res, err := r.db.ExecContext(ctx, q, nullUint64(s.OwnerID), s.Name, s.Price, s.Lat, s.Lng, nullString(s.Address), s.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches a station regardless of owner. It returns ErrNotFound if
// no row exists.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (*model.Station, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+stationColumns+" FROM stations WHERE id = ?", id)
	s, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// GetByIDs returns the stations with the given ids keyed by id. Unknown ids
// are simply absent from the map.
func (r *StationRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Station, error) {
	out := make(map[uint64]*model.Station, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := "SELECT " + stationColumns + " FROM stations WHERE id IN (" + placeholders(len(ids)) + ")"
	list, err := r.query(ctx, q, uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		out[s.ID] = s
	}
	return out, nil
}

// ListAll returns every station ordered by id, for public browsing.
func (r *StationRepo) ListAll(ctx context.Context) ([]*model.Station, error) {
	return r.query(ctx, "SELECT "+stationColumns+" FROM stations ORDER BY id")
}

// ListByOwner returns the stations managed by ownerID ordered by id.
func (r *StationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Station, error) {
	return r.query(ctx, "SELECT "+stationColumns+" FROM stations WHERE owner_id = ? ORDER BY id", ownerID)
}

// Update overwrites the mutable fields of a station owned by ownerID. It
// returns ErrNotFound when the station does not exist and ErrForbidden when
// it belongs to someone else.
func (r *StationRepo) Update(ctx context.Context, s *model.Station, ownerID uint64) error {
	current, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	if current.OwnerID == nil || *current.OwnerID != ownerID {
		return ErrForbidden
	}
	const q = "UPDATE stations SET name = ?, price = ?, lat = ?, lng = ?, address = ? WHERE id = ? AND owner_id = ?"
	if _, err := r.db.ExecContext(ctx, q, s.Name, s.Price, s.Lat, s.Lng, nullString(s.Address), s.ID, ownerID); err != nil {
		return err
	}
	s.OwnerID = current.OwnerID
	s.CreatedAt = current.CreatedAt
	return nil
}

func (r *StationRepo) query(ctx context.Context, q string, args ...any) ([]*model.Station, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanStation(row rowScanner) (*model.Station, error) {
	var (
		s       model.Station
		owner   sql.NullInt64
		address sql.NullString
	)
	if err := row.Scan(&s.ID, &owner, &s.Name, &s.Price, &s.Lat, &s.Lng, &address, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.OwnerID = uint64Ptr(owner)
	if address.Valid {
		a := address.String
		s.Address = &a
	}
	return &s, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
