package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
	"github.com/iliyamo/ecocharge-reservation/internal/metrics"
	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/queue"
	"github.com/iliyamo/ecocharge-reservation/internal/repository"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
)

// Reward constants for bookings and settlement.
const (
	GreenBaseCoins    int64 = 50
	StandardBaseCoins int64 = 10

	GreenCO2Kg    = 2.5
	StandardCO2Kg = 0.5

	// Settlement pays these when the caller supplies no override. They do
	// not reuse the reservation's precomputed earned coins.
	DefaultSettlementCoins int64 = 50
	DefaultSettlementXP    int64 = 50
)

// BaseCoins is the booking reward before campaign bonuses.
func BaseCoins(isGreen bool) int64 {
	if isGreen {
		return GreenBaseCoins
	}
	return StandardBaseCoins
}

// CO2Credit is the CO2 saving credited at settlement.
func CO2Credit(isGreen bool) float64 {
	if isGreen {
		return GreenCO2Kg
	}
	return StandardCO2Kg
}

// RewardQuote is the provisional reward of a booking.
type RewardQuote struct {
	Base         int64
	Bonus        int64
	CampaignID   *uint64
	CO2Earmarked float64
}

// Total is base plus bonus.
func (q RewardQuote) Total() int64 { return q.Base + q.Bonus }

// QuoteReward prices a booking. campaigns must already be the active and
// applicable campaigns ordered by priority; only the first one contributes.
func QuoteReward(isGreen bool, campaigns []model.Campaign) RewardQuote {
	q := RewardQuote{Base: BaseCoins(isGreen), CO2Earmarked: CO2Credit(isGreen)}
	if len(campaigns) > 0 {
		id := campaigns[0].ID
		q.CampaignID = &id
		q.Bonus = campaigns[0].CoinReward
	}
	return q
}

// ReservationService owns the reservation ledger and reward settlement.
type ReservationService struct {
	Users        *repository.UserRepo
	Stations     *repository.StationRepo
	Campaigns    *repository.CampaignRepo
	Reservations *repository.ReservationRepo
	Store        *repository.Store
	Events       queue.Publisher
	Now          func() time.Time
}

// NewReservationService wires the service over db. A nil publisher drops
// events.
func NewReservationService(db *sql.DB, events queue.Publisher) *ReservationService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ReservationService{
		Users:        repository.NewUserRepo(db),
		Stations:     repository.NewStationRepo(db),
		Campaigns:    repository.NewCampaignRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Store:        repository.NewStore(db),
		Events:       events,
		Now:          time.Now,
	}
}

// CreateReservationInput is a booking request. IsGreen is a pointer so a
// missing value can be told apart from false.
type CreateReservationInput struct {
	UserID    uint64
	StationID uint64
	Date      string
	Hour      string
	IsGreen   *bool
}

var bookingDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseBookingDate accepts a calendar date or a date-time; values without a
// zone are taken as UTC.
func ParseBookingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range bookingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalidf("date %q is not a valid date", s)
}

// CreateReservation validates a booking, prices it and persists a PENDING
// reservation. User balances are not touched. A driver may only book for
// themselves; operators may book on behalf of users.
func (s *ReservationService) CreateReservation(ctx context.Context, sess session.Session, in CreateReservationInput) (*model.Reservation, error) {
	in.Hour = strings.TrimSpace(in.Hour)
	switch {
	case in.UserID == 0:
		return nil, invalidf("userId is required")
	case in.StationID == 0:
		return nil, invalidf("stationId is required")
	case strings.TrimSpace(in.Date) == "":
		return nil, invalidf("date is required")
	case in.Hour == "":
		return nil, invalidf("hour is required")
	case in.IsGreen == nil:
		return nil, invalidf("isGreen must be a boolean")
	}
	date, err := ParseBookingDate(in.Date)
	if err != nil {
		return nil, err
	}
	if !sess.CanActFor(in.UserID) {
		return nil, repository.ErrForbidden
	}

	if _, err := s.Users.GetByID(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("user %d: %w", in.UserID, err)
	}
	if _, err := s.Stations.GetByID(ctx, in.StationID); err != nil {
		return nil, fmt.Errorf("station %d: %w", in.StationID, err)
	}

	campaigns, err := s.Campaigns.ActiveForStation(ctx, in.StationID, s.now())
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	quote := QuoteReward(*in.IsGreen, campaigns)

	res := &model.Reservation{
		UserID:      in.UserID,
		StationID:   in.StationID,
		Date:        date,
		Hour:        in.Hour,
		IsGreen:     *in.IsGreen,
		EarnedCoins: quote.Total(),
	}
	if err := s.Reservations.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	metrics.ReservationsCreated.WithLabelValues(fmt.Sprint(res.IsGreen)).Inc()
	if quote.CampaignID != nil {
		metrics.CampaignBonusApplied.Inc()
	}
	s.publish(ctx, queue.ReservationCreated{
		EventID:       uuid.NewString(),
		ReservationID: res.ID,
		UserID:        res.UserID,
		StationID:     res.StationID,
		Date:          res.Date.Format("2006-01-02"),
		Hour:          res.Hour,
		IsGreen:       res.IsGreen,
		EarnedCoins:   res.EarnedCoins,
		CampaignID:    quote.CampaignID,
		CreatedAt:     res.CreatedAt,
	})
	return res, nil
}

// ListForUser returns the caller's reservations, newest first.
func (s *ReservationService) ListForUser(ctx context.Context, sess session.Session) ([]*model.Reservation, error) {
	return s.Reservations.ListByUser(ctx, sess.UserID)
}

// Settlement is the outcome of a successful completion.
type Settlement struct {
	Reservation *model.Reservation
	Balances    model.Balances
}

// CompleteReservation authorizes the caller and settles the reservation.
// Drivers may only complete their own reservations.
func (s *ReservationService) CompleteReservation(ctx context.Context, sess session.Session, id uint64, coins, xp *int64) (*Settlement, error) {
	res, err := s.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Settlements.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}
	if !sess.CanActFor(res.UserID) {
		return nil, repository.ErrForbidden
	}
	return s.Settle(ctx, id, coins, xp)
}

// Settle finalizes a reservation exactly once. In a single transaction it
// marks the reservation COMPLETED with the final coin amount and credits the
// owner's coins, CO2 and XP. coins and xp override the fixed defaults when
// set. A second settlement of the same reservation fails with
// repository.ErrAlreadyCompleted and changes nothing.
func (s *ReservationService) Settle(ctx context.Context, id uint64, coins, xp *int64) (*Settlement, error) {
	finalCoins, finalXP := DefaultSettlementCoins, DefaultSettlementXP
	if coins != nil {
		if *coins < 0 {
			return nil, invalidf("earnedCoins must not be negative")
		}
		finalCoins = *coins
	}
	if xp != nil {
		if *xp < 0 {
			return nil, invalidf("earnedXp must not be negative")
		}
		finalXP = *xp
	}

	var out Settlement
	var co2 float64
	err := s.Store.InTx(ctx, func(tx *sql.Tx) error {
		res, err := s.Reservations.CompleteTx(ctx, tx, id, finalCoins, s.now())
		if err != nil {
			return err
		}
		co2 = CO2Credit(res.IsGreen)
		bal, err := s.Users.CreditRewardsTx(ctx, tx, res.UserID, finalCoins, co2, finalXP)
		if err != nil {
			return fmt.Errorf("credit user %d: %w", res.UserID, err)
		}
		out = Settlement{Reservation: res, Balances: bal}
		return nil
	})
	if err != nil {
		metrics.Settlements.WithLabelValues(settlementResult(err)).Inc()
		return nil, err
	}

	metrics.Settlements.WithLabelValues("completed").Inc()
	metrics.CoinsCredited.Add(float64(finalCoins))
	logger.Info("reservation settled", "reservation_id", id, "user_id", out.Balances.UserID,
		"coins", finalCoins, "xp", finalXP, "co2", co2)

	completedAt := s.now().UTC()
	if out.Reservation.CompletedAt != nil {
		completedAt = *out.Reservation.CompletedAt
	}
	s.publish(ctx, queue.ReservationCompleted{
		EventID:       uuid.NewString(),
		ReservationID: out.Reservation.ID,
		UserID:        out.Reservation.UserID,
		StationID:     out.Reservation.StationID,
		CoinsCredited: finalCoins,
		XPCredited:    finalXP,
		CO2Credited:   co2,
		Coins:         out.Balances.Coins,
		XP:            out.Balances.XP,
		CO2Saved:      out.Balances.CO2Saved,
		CompletedAt:   completedAt,
	})
	return &out, nil
}

func settlementResult(err error) string {
	switch {
	case errors.Is(err, repository.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// publish delivers ev best-effort; the request outcome never depends on it.
func (s *ReservationService) publish(ctx context.Context, ev queue.Event) {
	if s.Events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.Events.Publish(pctx, ev); err != nil {
		logger.WarnContext(ctx, "event publish failed", "queue", ev.Queue(), "error", err)
	}
}

func (s *ReservationService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
