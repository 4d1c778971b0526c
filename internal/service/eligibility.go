package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

// VisibleCampaign is a campaign the user qualifies for, with the badge ids
// that unlocked it. MatchedBadgeIDs is empty for untargeted campaigns.
type VisibleCampaign struct {
	Campaign        model.Campaign
	MatchedBadgeIDs []uint64
}

// SelectVisible applies the eligibility rules to candidates: a campaign is
// shown when it is active at now and either targets no badges or targets at
// least one badge in held. The result is ordered by coin reward descending,
// then id ascending.
func SelectVisible(candidates []model.Campaign, held map[uint64]struct{}, now time.Time) []VisibleCampaign {
	out := make([]VisibleCampaign, 0, len(candidates))
	for _, c := range candidates {
		if c.Status != model.CampaignActive {
			continue
		}
		if c.EndDate != nil && c.EndDate.Before(now) {
			continue
		}
		if len(c.TargetBadgeIDs) == 0 {
			out = append(out, VisibleCampaign{Campaign: c, MatchedBadgeIDs: []uint64{}})
			continue
		}
		var matched []uint64
		for _, id := range c.TargetBadgeIDs {
			if _, ok := held[id]; ok {
				matched = append(matched, id)
			}
		}
		if len(matched) > 0 {
			out = append(out, VisibleCampaign{Campaign: c, MatchedBadgeIDs: matched})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Campaign, out[j].Campaign
		if a.CoinReward != b.CoinReward {
			return a.CoinReward > b.CoinReward
		}
		return a.ID < b.ID
	})
	return out
}

// PersonalizedCampaign is a visible campaign annotated for display.
type PersonalizedCampaign struct {
	Campaign      model.Campaign
	MatchedBadges []model.Badge
	Station       *model.Station
}

// UserCampaigns is the result of CampaignsForUser.
type UserCampaigns struct {
	Campaigns  []PersonalizedCampaign
	UserBadges []model.Badge
}

// EligibilityService answers which campaigns a user currently qualifies for.
type EligibilityService struct {
	Campaigns *repository.CampaignRepo
	Badges    *repository.BadgeRepo
	Stations  *repository.StationRepo
	Now       func() time.Time
}

func NewEligibilityService(db *sql.DB) *EligibilityService {
	return &EligibilityService{
		Campaigns: repository.NewCampaignRepo(db),
		Badges:    repository.NewBadgeRepo(db),
		Stations:  repository.NewStationRepo(db),
		Now:       time.Now,
	}
}

// CampaignsForUser lists the campaigns visible to the caller. When
// operatorID is set only global campaigns and campaigns on that operator's
// stations are considered.
func (s *EligibilityService) CampaignsForUser(ctx context.Context, sess session.Session, operatorID *uint64) (*UserCampaigns, error) {
	if sess.UserID == 0 {
		return nil, ErrUnauthorized
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	badges, err := s.Badges.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user badges: %w", err)
	}
	held := make(map[uint64]struct{}, len(badges))
	byID := make(map[uint64]model.Badge, len(badges))
	for _, b := range badges {
		held[b.ID] = struct{}{}
		byID[b.ID] = b
	}

	candidates, err := s.Campaigns.ActiveCandidates(ctx, now, operatorID)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	visible := SelectVisible(candidates, held, now)

	var stationIDs []uint64
	for _, v := range visible {
		if v.Campaign.StationID != nil {
			stationIDs = append(stationIDs, *v.Campaign.StationID)
		}
	}
	stations, err := s.Stations.GetByIDs(ctx, stationIDs)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}

	out := &UserCampaigns{
		Campaigns:  make([]PersonalizedCampaign, 0, len(visible)),
		UserBadges: badges,
	}
	if out.UserBadges == nil {
		out.UserBadges = []model.Badge{}
	}
	for _, v := range visible {
		pc := PersonalizedCampaign{Campaign: v.Campaign, MatchedBadges: make([]model.Badge, 0, len(v.MatchedBadgeIDs))}
		for _, id := range v.MatchedBadgeIDs {
			pc.MatchedBadges = append(pc.MatchedBadges, byID[id])
		}
		if v.Campaign.StationID != nil {
			pc.Station = stations[*v.Campaign.StationID]
		}
		out.Campaigns = append(out.Campaigns, pc)
	}
	return out, nil
}
