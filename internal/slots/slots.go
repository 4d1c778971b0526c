// Package slots generates the 24-hour rolling window of bookable slots for a
// station. It is pure: the same station, start time and load model always
// produce the same slots.
package slots

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	WindowHours = 24

	GreenCoins    = 50
	StandardCoins = 10

	// loads below greenThreshold are LOW density and flagged as green
	greenThreshold = 40
	mediumCeiling  = 70
)

var (
	offPeakMultiplier = decimal.RequireFromString("0.95")
	peakMultiplier    = decimal.RequireFromString("1.15")
)

// Density classifies a load percentage.
type Density string

const (
	DensityLow    Density = "LOW"
	DensityMedium Density = "MEDIUM"
	DensityHigh   Density = "HIGH"
)

// Slot describes one bookable hour.
type Slot struct {
	Hour      int             `json:"hour"`
	Label     string          `json:"label"`
	StartTime time.Time       `json:"startTime"`
	IsGreen   bool            `json:"isGreen"`
	Coins     int             `json:"coins"`
	Load      int             `json:"load"`
	Density   Density         `json:"density"`
	Price     decimal.Decimal `json:"price"`
}

// LoadFunc returns the expected grid load (0-100) of a station at the hour
// starting at t.
type LoadFunc func(stationID uint64, t time.Time) int

// HashLoad is the default load model: a stable FNV-1a hash of station and
// hour mapped onto 0-100.
func HashLoad(stationID uint64, t time.Time) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%d|%s", stationID, t.UTC().Format("2006-01-02T15"))
	return int(h.Sum32() % 101)
}

// Generate returns WindowHours slots starting at the hour containing now
// (UTC), priced from basePrice.
func Generate(stationID uint64, basePrice decimal.Decimal, now time.Time, load LoadFunc) []Slot {
	if load == nil {
		load = HashLoad
	}
	start := now.UTC().Truncate(time.Hour)
	out := make([]Slot, 0, WindowHours)
	for i := 0; i < WindowHours; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		l := clamp(load(stationID, at))
		green := l < greenThreshold
		coins := StandardCoins
		if green {
			coins = GreenCoins
		}
		out = append(out, Slot{
			Hour:      at.Hour(),
			Label:     Label(at.Hour()),
			StartTime: at,
			IsGreen:   green,
			Coins:     coins,
			Load:      l,
			Density:   DensityOf(l),
			Price:     Price(basePrice, l),
		})
	}
	return out
}

// Label renders "HH:00 - HH+1:00" with the end wrapping past midnight.
func Label(hour int) string {
	return fmt.Sprintf("%02d:00 - %02d:00", hour, (hour+1)%24)
}

// Multiplier is 0.95 below 30% load, 1.15 above 70% and 1 otherwise.
func Multiplier(load int) decimal.Decimal {
	switch {
	case load < 30:
		return offPeakMultiplier
	case load > 70:
		return peakMultiplier
	default:
		return decimal.NewFromInt(1)
	}
}

// Price applies the load multiplier to base and rounds to 2 decimals.
func Price(base decimal.Decimal, load int) decimal.Decimal {
	return base.Mul(Multiplier(load)).Round(2)
}

// DensityOf buckets a load into LOW (<40), MEDIUM (<70) or HIGH.
func DensityOf(load int) Density {
	switch {
	case load < greenThreshold:
		return DensityLow
	case load < mediumCeiling:
		return DensityMedium
	default:
		return DensityHigh
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
