package model

import "time"

// ReservationStatus is the settlement state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

// Reservation records one booking request for a station slot.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user the reward is paid to.
//  StationID   – station being booked.
//  Date        – calendar date/time of the slot (UTC).
//  Hour        – slot label, e.g. "14:00".
//  IsGreen     – slot was a low-load eco slot at booking time.
//  EarnedCoins – reward amount; replaced by the settled amount on completion.
//  Status      – PENDING until settled, then COMPLETED (terminal).
//  CreatedAt   – creation timestamp.
//  CompletedAt – settlement timestamp (nullable).
type Reservation struct {
	ID          uint64            // reservations.id
	UserID      uint64            // reservations.user_id
	StationID   uint64            // reservations.station_id
	Date        time.Time         // reservations.slot_date
	Hour        string            // reservations.slot_hour
	IsGreen     bool              // reservations.is_green
	EarnedCoins int64             // reservations.earned_coins
	Status      ReservationStatus // reservations.status
	CreatedAt   time.Time         // reservations.created_at
	CompletedAt *time.Time        // reservations.completed_at (nullable)
}
