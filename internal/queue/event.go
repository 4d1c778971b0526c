// Package queue defines the domain events exchanged over RabbitMQ together
// with the publisher used by services and the consumer that records them.
package queue

import "time"

const (
	ReservationCreatedQueue   = "reservation.created"
	ReservationCompletedQueue = "reservation.completed"
)

// Event is a message with a destination queue.
type Event interface {
	Queue() string
}

// ReservationCreated is published after a booking is persisted. Coins are
// provisional until settlement.
type ReservationCreated struct {
	EventID       string    `json:"event_id"`
	ReservationID uint64    `json:"reservation_id"`
	UserID        uint64    `json:"user_id"`
	StationID     uint64    `json:"station_id"`
	Date          string    `json:"date"`
	Hour          string    `json:"hour"`
	IsGreen       bool      `json:"is_green"`
	EarnedCoins   int64     `json:"earned_coins"`
	CampaignID    *uint64   `json:"campaign_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ReservationCreated) Queue() string { return ReservationCreatedQueue }

// ReservationCompleted is published after a settlement commits. It carries
// the credited deltas and the user's resulting balances.
type ReservationCompleted struct {
	EventID       string    `json:"event_id"`
	ReservationID uint64    `json:"reservation_id"`
	UserID        uint64    `json:"user_id"`
	StationID     uint64    `json:"station_id"`
	CoinsCredited int64     `json:"coins_credited"`
	XPCredited    int64     `json:"xp_credited"`
	CO2Credited   float64   `json:"co2_credited"`
	Coins         int64     `json:"coins"`
	XP            int64     `json:"xp"`
	CO2Saved      float64   `json:"co2_saved"`
	CompletedAt   time.Time `json:"completed_at"`
}

func (ReservationCompleted) Queue() string { return ReservationCompletedQueue }
