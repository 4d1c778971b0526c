package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/metrics"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

// CampaignInput is the operator-supplied campaign definition. Optional
// fields are pointers so that zero values can be told apart from missing
// ones.
type CampaignInput struct {
	Title          string
	Description    string
	Status         string
	Target         string
	Discount       string
	EndDate        string
	StationID      *uint64
	CoinReward     *int64
	TargetBadgeIDs []uint64
}

// CampaignService manages an operator's campaigns.
type CampaignService struct {
	Campaigns *repository.CampaignRepo
	Stations  *repository.StationRepo
	Badges    *repository.BadgeRepo
}

func NewCampaignService(db *sql.DB) *CampaignService {
	return &CampaignService{
		Campaigns: repository.NewCampaignRepo(db),
		Stations:  repository.NewStationRepo(db),
		Badges:    repository.NewBadgeRepo(db),
	}
}

// ParseEndDate accepts RFC3339 or a calendar date. A calendar date means the
// last second of that day in UTC. Empty input yields nil.
func ParseEndDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		t := d.Add(24*time.Hour - time.Second).UTC()
		return &t, nil
	}
	return nil, invalidf("endDate %q must be YYYY-MM-DD or RFC3339", s)
}

// List returns the caller's campaigns.
func (s *CampaignService) List(ctx context.Context, sess session.Session) ([]model.Campaign, error) {
	if !sess.IsOperator() {
		return nil, repository.ErrForbidden
	}
	return s.Campaigns.ListByOwner(ctx, sess.UserID)
}

// Get returns one of the caller's campaigns.
func (s *CampaignService) Get(ctx context.Context, sess session.Session, id uint64) (*model.Campaign, error) {
	if !sess.IsOperator() {
		return nil, repository.ErrForbidden
	}
	c, err := s.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != sess.UserID {
		return nil, repository.ErrForbidden
	}
	return c, nil
}

// Create validates in and stores a campaign owned by the caller.
func (s *CampaignService) Create(ctx context.Context, sess session.Session, in CampaignInput) (*model.Campaign, error) {
	c, err := s.build(ctx, sess, in)
	if err != nil {
		return nil, err
	}
	if err := s.Campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info("campaign created", "campaign_id", c.ID, "owner_id", c.OwnerID, "status", c.Status)
	return c, nil
}

// Update replaces one of the caller's campaigns with in.
func (s *CampaignService) Update(ctx context.Context, sess session.Session, id uint64, in CampaignInput) (*model.Campaign, error) {
	c, err := s.build(ctx, sess, in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.Campaigns.Update(ctx, c, sess.UserID); err != nil {
		return nil, err
	}
	return s.Campaigns.GetByID(ctx, id)
}

// Delete removes one of the caller's campaigns.
func (s *CampaignService) Delete(ctx context.Context, sess session.Session, id uint64) error {
	if !sess.IsOperator() {
		return repository.ErrForbidden
	}
	return s.Campaigns.Delete(ctx, id, sess.UserID)
}

// ExpireCampaigns ends every active campaign whose end date has passed.
func (s *CampaignService) ExpireCampaigns(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.Campaigns.EndExpired(ctx, now)
	logger.DatabaseResult("end expired campaigns", n, err)
	if err != nil {
		return 0, err
	}
	metrics.CampaignsExpired.Add(float64(n))
	return n, nil
}

func (s *CampaignService) build(ctx context.Context, sess session.Session, in CampaignInput) (*model.Campaign, error) {
	if !sess.IsOperator() {
		return nil, repository.ErrForbidden
	}
	c := &model.Campaign{
		OwnerID:     sess.UserID,
		StationID:   in.StationID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      model.CampaignStatus(strings.ToUpper(strings.TrimSpace(in.Status))),
		Target:      strings.TrimSpace(in.Target),
		Discount:    strings.TrimSpace(in.Discount),
	}
	if c.Title == "" {
		return nil, invalidf("title is required")
	}
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	if !c.Status.Valid() {
		return nil, invalidf("status must be one of DRAFT, ACTIVE, ENDED")
	}
	if in.CoinReward != nil {
		if *in.CoinReward < 0 {
			return nil, invalidf("coinReward must not be negative")
		}
		c.CoinReward = *in.CoinReward
	}
	end, err := ParseEndDate(in.EndDate)
	if err != nil {
		return nil, err
	}
	c.EndDate = end

	if c.StationID != nil {
		st, err := s.Stations.GetByID(ctx, *c.StationID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidf("station %d does not exist", *c.StationID)
		}
		if err != nil {
			return nil, err
		}
		if st.OwnerID == nil || *st.OwnerID != sess.UserID {
			return nil, repository.ErrForbidden
		}
	}

	c.TargetBadgeIDs = dedupe(in.TargetBadgeIDs)
	if len(c.TargetBadgeIDs) > 0 {
		n, err := s.Badges.CountExisting(ctx, c.TargetBadgeIDs)
		if err != nil {
			return nil, err
		}
		if n != len(c.TargetBadgeIDs) {
			return nil, invalidf("targetBadgeIds contains unknown badges")
		}
	}
	return c, nil
}

func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
