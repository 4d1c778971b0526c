package slots

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	base := decimal.RequireFromString("7.49")
	tests := []struct {
		load int
		want string
	}{
		{0, "7.12"}, // 7.1155
		{29, "7.12"},
		{30, "7.49"},
		{70, "7.49"},
		{71, "8.61"}, // 8.6135
		{100, "8.61"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Price(base, tt.load).StringFixed(2), "load %d", tt.load)
	}
}

func TestDensityOf(t *testing.T) {
	assert.Equal(t, DensityLow, DensityOf(39))
	assert.Equal(t, DensityMedium, DensityOf(40))
	assert.Equal(t, DensityMedium, DensityOf(69))
	assert.Equal(t, DensityHigh, DensityOf(70))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "14:00 - 15:00", Label(14))
	assert.Equal(t, "23:00 - 00:00", Label(23))
	assert.Equal(t, "00:00 - 01:00", Label(0))
}

func TestGenerate(t *testing.T) {
	now := time.Date(2026, 10, 18, 22, 41, 5, 0, time.UTC)
	loads := map[int]int{22: 10, 23: 80, 0: 50}
	load := func(_ uint64, at time.Time) int {
		if l, ok := loads[at.Hour()]; ok {
			return l
		}
		return 120
	}

	got := Generate(10, decimal.NewFromInt(10), now, load)
	require.Len(t, got, WindowHours)

	first := got[0]
	assert.Equal(t, 22, first.Hour)
	assert.Equal(t, "22:00 - 23:00", first.Label)
	assert.True(t, first.StartTime.Equal(time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC)))
	assert.True(t, first.IsGreen)
	assert.Equal(t, GreenCoins, first.Coins)
	assert.Equal(t, "9.50", first.Price.StringFixed(2))

	assert.False(t, got[1].IsGreen)
	assert.Equal(t, StandardCoins, got[1].Coins)
	assert.Equal(t, "11.50", got[1].Price.StringFixed(2))

	assert.Equal(t, 0, got[2].Hour)
	assert.Equal(t, 19, got[2].StartTime.Day())
	assert.Equal(t, DensityMedium, got[2].Density)

	assert.Equal(t, 100, got[3].Load, "loads are clamped")
}

func TestGenerate_IsReplayable(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)
	a := Generate(3, decimal.NewFromInt(8), now, nil)
	b := Generate(3, decimal.NewFromInt(8), now.Add(30*time.Minute), nil)
	assert.Equal(t, a, b)

	for _, s := range a {
		assert.GreaterOrEqual(t, s.Load, 0)
		assert.LessOrEqual(t, s.Load, 100)
		assert.Equal(t, s.Load < 40, s.IsGreen)
	}
}

func TestHashLoad_CoversFullRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[int]bool)
	for station := uint64(1); station <= 40; station++ {
		for h := 0; h < 24*30; h++ {
			load := HashLoad(station, start.Add(time.Duration(h)*time.Hour))
			require.GreaterOrEqual(t, load, 0)
			require.LessOrEqual(t, load, 100)
			seen[load] = true
		}
	}
	assert.Len(t, seen, 101, "every load from 0 to 100 is reachable")
}
