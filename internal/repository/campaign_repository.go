package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

const campaignColumns = "c.id, c.owner_id, c.station_id, c.title, c.description, c.status, c.target, c.discount, c.end_date, c.coin_reward, c.created_at"

// activeClause selects campaigns that are ACTIVE and not past their end date
// at the time bound to the first placeholder.
const activeClause = "c.status = 'ACTIVE' AND (c.end_date IS NULL OR c.end_date >= ?)"

// CampaignRepo encapsulates queries over campaigns and their badge targets.
type CampaignRepo struct {
	db *sql.DB
}

func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// ActiveForStation returns the campaigns active and applicable to stationID
// at time at, most recently created first. Global campaigns (no station)
// apply to every station. Target badges are not loaded.
func (r *CampaignRepo) ActiveForStation(ctx context.Context, stationID uint64, at time.Time) ([]model.Campaign, error) {
	q := "SELECT " + campaignColumns + " FROM campaigns c WHERE " + activeClause +
		" AND (c.station_id IS NULL OR c.station_id = ?) ORDER BY c.created_at DESC, c.id DESC"
	return r.query(ctx, q, DBTime(at), stationID)
}

// ActiveCandidates returns every campaign active at time at together with
// its target badge ids. When operatorID is set the result is restricted to
// global campaigns and campaigns on stations that operator owns.
func (r *CampaignRepo) ActiveCandidates(ctx context.Context, at time.Time, operatorID *uint64) ([]model.Campaign, error) {
	var (
		list []model.Campaign
		err  error
	)
	if operatorID == nil {
		list, err = r.query(ctx,
			"SELECT "+campaignColumns+" FROM campaigns c WHERE "+activeClause+" ORDER BY c.id", DBTime(at))
	} else {
		list, err = r.query(ctx,
			"SELECT "+campaignColumns+" FROM campaigns c LEFT JOIN stations s ON s.id = c.station_id WHERE "+
				activeClause+" AND (c.station_id IS NULL OR s.owner_id = ?) ORDER BY c.id", DBTime(at), *operatorID)
	}
	if err != nil {
		return nil, err
	}
	return list, r.attachBadges(ctx, list)
}

// ListByOwner returns an operator's campaigns, newest first, with targets.
func (r *CampaignRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Campaign, error) {
	list, err := r.query(ctx,
		"SELECT "+campaignColumns+" FROM campaigns c WHERE c.owner_id = ? ORDER BY c.created_at DESC, c.id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	return list, r.attachBadges(ctx, list)
}

// GetByID fetches one campaign with its targets or ErrNotFound.
func (r *CampaignRepo) GetByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	list, err := r.query(ctx, "SELECT "+campaignColumns+" FROM campaigns c WHERE c.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	if err := r.attachBadges(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Create inserts the campaign and its badge targets in one transaction and
// populates ID and CreatedAt.
func (r *CampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = dbNow()
	return NewStore(r.db).InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO campaigns (owner_id, station_id, title, description, status, target, discount, end_date, coin_reward, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.OwnerID, nullUint64(c.StationID), c.Title, c.Description, string(c.Status), c.Target, c.Discount,
			nullTime(c.EndDate), c.CoinReward, c.CreatedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(id)
		return insertTargetsTx(ctx, tx, c.ID, c.TargetBadgeIDs)
	})
}

// Update overwrites a campaign owned by ownerID and replaces its targets.
// ErrNotFound and ErrForbidden report a missing or foreign campaign.
func (r *CampaignRepo) Update(ctx context.Context, c *model.Campaign, ownerID uint64) error {
	return NewStore(r.db).InTx(ctx, func(tx *sql.Tx) error {
		if err := checkCampaignOwnerTx(ctx, tx, c.ID, ownerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE campaigns SET station_id = ?, title = ?, description = ?, status = ?, target = ?, discount = ?, end_date = ?, coin_reward = ?
			 WHERE id = ? AND owner_id = ?`,
			nullUint64(c.StationID), c.Title, c.Description, string(c.Status), c.Target, c.Discount,
			nullTime(c.EndDate), c.CoinReward, c.ID, ownerID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_target_badges WHERE campaign_id = ?", c.ID); err != nil {
			return err
		}
		c.OwnerID = ownerID
		return insertTargetsTx(ctx, tx, c.ID, c.TargetBadgeIDs)
	})
}

// Delete removes a campaign owned by ownerID together with its targets.
func (r *CampaignRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	return NewStore(r.db).InTx(ctx, func(tx *sql.Tx) error {
		if err := checkCampaignOwnerTx(ctx, tx, id, ownerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_target_badges WHERE campaign_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM campaigns WHERE id = ? AND owner_id = ?", id, ownerID)
		return err
	})
}

// EndExpired flips ACTIVE campaigns whose end date is before at to ENDED and
// returns how many changed.
func (r *CampaignRepo) EndExpired(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE campaigns SET status = 'ENDED' WHERE status = 'ACTIVE' AND end_date IS NOT NULL AND end_date < ?",
		DBTime(at))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func checkCampaignOwnerTx(ctx context.Context, tx *sql.Tx, id, ownerID uint64) error {
	var owner uint64
	err := tx.QueryRowContext(ctx, "SELECT owner_id FROM campaigns WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	return nil
}

func insertTargetsTx(ctx context.Context, tx *sql.Tx, campaignID uint64, badgeIDs []uint64) error {
	for _, b := range badgeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO campaign_target_badges (campaign_id, badge_id) VALUES (?, ?)", campaignID, b); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// attachBadges loads target badge ids for every campaign in list with a
// single query.
func (r *CampaignRepo) attachBadges(ctx context.Context, list []model.Campaign) error {
	if len(list) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(list))
	ids := make([]uint64, len(list))
	for i, c := range list {
		idx[c.ID] = i
		ids[i] = c.ID
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT campaign_id, badge_id FROM campaign_target_badges WHERE campaign_id IN ("+placeholders(len(ids))+") ORDER BY campaign_id, badge_id",
		uint64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid, bid uint64
		if err := rows.Scan(&cid, &bid); err != nil {
			return err
		}
		if i, ok := idx[cid]; ok {
			list[i].TargetBadgeIDs = append(list[i].TargetBadgeIDs, bid)
		}
	}
	return rows.Err()
}

func (r *CampaignRepo) query(ctx context.Context, q string, args ...any) ([]model.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Campaign
	for rows.Next() {
		var (
			c       model.Campaign
			station sql.NullInt64
			status  string
			endDate sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &station, &c.Title, &c.Description, &status, &c.Target,
			&c.Discount, &endDate, &c.CoinReward, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.StationID = uint64Ptr(station)
		c.Status = model.CampaignStatus(status)
		c.EndDate = timePtr(endDate)
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: DBTime(*t), Valid: true}
}
