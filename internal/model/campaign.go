package model

import "time"

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "DRAFT"
	CampaignActive CampaignStatus = "ACTIVE"
	CampaignEnded  CampaignStatus = "ENDED"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignEnded:
		return true
	}
	return false
}

// Campaign is an operator-defined promotion. A nil StationID means the
// campaign applies to every station; an empty TargetBadgeIDs set means every
// user may see it.
type Campaign struct {
	ID             uint64         // campaigns.id
	OwnerID        uint64         // campaigns.owner_id
	StationID      *uint64        // campaigns.station_id (nullable)
	Title          string         // campaigns.title
	Description    string         // campaigns.description
	Status         CampaignStatus // campaigns.status
	Target         string         // campaigns.target
	Discount       string         // campaigns.discount, free-form e.g. "%20"
	EndDate        *time.Time     // campaigns.end_date (nullable)
	CoinReward     int64          // campaigns.coin_reward
	TargetBadgeIDs []uint64       // campaign_target_badges.badge_id
	CreatedAt      time.Time      // campaigns.created_at
}

// ActiveAt reports whether the campaign is active and applicable to a
// reservation at stationID at time t.
func (c Campaign) ActiveAt(stationID uint64, t time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(t) {
		return false
	}
	return c.StationID == nil || *c.StationID == stationID
}
