package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

// BadgeRepo reads the static badge catalog and user holdings.
type BadgeRepo struct {
	db *sql.DB
}

func NewBadgeRepo(db *sql.DB) *BadgeRepo { return &BadgeRepo{db: db} }

// ListAll returns the catalog ordered by id.
func (r *BadgeRepo) ListAll(ctx context.Context) ([]model.Badge, error) {
	return r.query(ctx, "SELECT id, name, icon, description FROM badges ORDER BY id")
}

// ListByUser returns the badges held by userID ordered by id.
func (r *BadgeRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Badge, error) {
	return r.query(ctx,
		`SELECT b.id, b.name, b.icon, b.description
		 FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.user_id = ? ORDER BY b.id`, userID)
}

// CountExisting returns how many of ids exist in the catalog. Callers pass
// de-duplicated ids.
func (r *BadgeRepo) CountExisting(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM badges WHERE id IN ("+placeholders(len(ids))+")", uint64Args(ids)...).Scan(&n)
	return n, err
}

// Create inserts a catalog entry and sets its ID. A duplicate name yields
// ErrConflict.
func (r *BadgeRepo) Create(ctx context.Context, b *model.Badge) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO badges (name, icon, description) VALUES (?, ?, ?)", b.Name, b.Icon, b.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// Grant records that userID holds badgeID. Granting twice is a no-op;
// badges are never revoked.
func (r *BadgeRepo) Grant(ctx context.Context, userID, badgeID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_badges (user_id, badge_id, granted_at) VALUES (?, ?, ?)", userID, badgeID, dbNow())
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *BadgeRepo) query(ctx context.Context, q string, args ...any) ([]model.Badge, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Badge
	for rows.Next() {
		var b model.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Icon, &b.Description); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
