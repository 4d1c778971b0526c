package handler

import (
	"time"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/service"
	"github.com/iliyamo/ecocharge-reservation/internal/slots"
	"github.com/iliyamo/ecocharge-reservation/internal/utils"
)

// JSON shapes of the public API. Field names are camelCase.

type userView struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	Coins    int64      `json:"coins"`
	CO2Saved float64    `json:"co2Saved"`
	XP       int64      `json:"xp"`
}

func toUserView(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Coins: u.Coins, CO2Saved: u.CO2Saved, XP: u.XP}
}

type balanceView struct {
	ID       uint64  `json:"id"`
	Coins    int64   `json:"coins"`
	CO2Saved float64 `json:"co2Saved"`
	XP       int64   `json:"xp"`
}

type leaderView struct {
	Rank     int     `json:"rank"`
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	XP       int64   `json:"xp"`
	Coins    int64   `json:"coins"`
	CO2Saved float64 `json:"co2Saved"`
}

type badgeView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description,omitempty"`
}

func toBadgeViews(list []model.Badge) []badgeView {
	out := make([]badgeView, 0, len(list))
	for _, b := range list {
		out = append(out, badgeView{ID: b.ID, Name: b.Name, Icon: b.Icon, Description: b.Description})
	}
	return out
}

type stationView struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address *string `json:"address"`
	OwnerID *uint64 `json:"ownerId"`
}

func toStationView(s *model.Station) stationView {
	return stationView{ID: s.ID, Name: s.Name, Price: s.Price.InexactFloat64(), Lat: s.Lat, Lng: s.Lng,
		Address: s.Address, OwnerID: s.OwnerID}
}

func toStationViews(list []*model.Station) []stationView {
	out := make([]stationView, 0, len(list))
	for _, s := range list {
		out = append(out, toStationView(s))
	}
	return out
}

// stationSummaryView is a station row of the operator dashboard. Status is
// GREEN, YELLOW or RED by current load.
type stationSummaryView struct {
	stationView
	Load                  int     `json:"load"`
	Status                string  `json:"status"`
	ReservationCount      int     `json:"reservationCount"`
	GreenReservationCount int     `json:"greenReservationCount"`
	Revenue               float64 `json:"revenue"`
}

var densityStatus = map[slots.Density]string{
	slots.DensityLow:    "GREEN",
	slots.DensityMedium: "YELLOW",
	slots.DensityHigh:   "RED",
}

func toStationSummaryViews(list []service.StationSummary) []stationSummaryView {
	out := make([]stationSummaryView, 0, len(list))
	for _, s := range list {
		out = append(out, stationSummaryView{
			stationView:           toStationView(s.Station),
			Load:                  s.Load,
			Status:                densityStatus[s.Density],
			ReservationCount:      s.ReservationCount,
			GreenReservationCount: s.GreenReservationCount,
			Revenue:               s.Revenue.InexactFloat64(),
		})
	}
	return out
}

type dashboardStatsView struct {
	TotalReservations int     `json:"totalReservations"`
	GreenReservations int     `json:"greenReservations"`
	GreenShare        int     `json:"greenShare"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AvgLoad           int     `json:"avgLoad"`
}

func toDashboardStatsView(s service.DashboardStats) dashboardStatsView {
	return dashboardStatsView{
		TotalReservations: s.TotalReservations,
		GreenReservations: s.GreenReservations,
		GreenShare:        s.GreenShare,
		TotalRevenue:      s.TotalRevenue.InexactFloat64(),
		AvgLoad:           s.AvgLoad,
	}
}

type reservationView struct {
	ID          uint64                  `json:"id"`
	UserID      uint64                  `json:"userId"`
	StationID   uint64                  `json:"stationId"`
	Date        string                  `json:"date"`
	Hour        string                  `json:"hour"`
	IsGreen     bool                    `json:"isGreen"`
	EarnedCoins int64                   `json:"earnedCoins"`
	Status      model.ReservationStatus `json:"status"`
	CreatedAt   time.Time               `json:"createdAt"`
	CompletedAt *time.Time              `json:"completedAt"`
}

func toReservationView(r *model.Reservation) reservationView {
	return reservationView{ID: r.ID, UserID: r.UserID, StationID: r.StationID, Date: r.Date.Format("2006-01-02"),
		Hour: r.Hour, IsGreen: r.IsGreen, EarnedCoins: r.EarnedCoins, Status: r.Status,
		CreatedAt: r.CreatedAt, CompletedAt: r.CompletedAt}
}

func toReservationViews(list []*model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationView(r))
	}
	return out
}

type campaignView struct {
	ID             uint64               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Status         model.CampaignStatus `json:"status"`
	Target         string               `json:"target"`
	Discount       string               `json:"discount"`
	EndDate        *time.Time           `json:"endDate"`
	CoinReward     int64                `json:"coinReward"`
	StationID      *uint64              `json:"stationId"`
	TargetBadgeIDs []uint64             `json:"targetBadgeIds"`
	CreatedAt      time.Time            `json:"createdAt"`
}

func toCampaignView(c *model.Campaign) campaignView {
	targets := c.TargetBadgeIDs
	if targets == nil {
		targets = []uint64{}
	}
	return campaignView{ID: c.ID, Title: c.Title, Description: c.Description, Status: c.Status, Target: c.Target,
		Discount: c.Discount, EndDate: c.EndDate, CoinReward: c.CoinReward, StationID: c.StationID,
		TargetBadgeIDs: targets, CreatedAt: c.CreatedAt}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

func accessPart(t utils.AccessToken) tokenPart   { return tokenPart{Token: t.Token, Expires: t.Exp} }
func refreshPart(t utils.RefreshToken) tokenPart { return tokenPart{Token: t.Raw, Expires: t.Exp} }
