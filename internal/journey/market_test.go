package journey

import (
	"testing"
	"time"
)

func TestClassifySession(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want Phase
	}{
		{"monday mid-session", time.Date(2025, 1, 6, 10, 0, 0, 0, eastern), PhaseMarketHours},
		{"monday open bell", time.Date(2025, 1, 6, 9, 30, 0, 0, eastern), PhaseMarketHours},
		{"monday pre-market", time.Date(2025, 1, 6, 9, 15, 0, 0, eastern), PhasePreMarket},
		{"monday early pre-market", time.Date(2025, 1, 6, 5, 0, 0, 0, eastern), PhasePreMarket},
		{"monday after close", time.Date(2025, 1, 6, 16, 30, 0, 0, eastern), PhaseAfterMarket},
		{"monday evening", time.Date(2025, 1, 6, 21, 0, 0, 0, eastern), PhaseClosed},
		{"monday overnight", time.Date(2025, 1, 6, 3, 0, 0, 0, eastern), PhaseClosed},
		{"friday close bell", time.Date(2025, 1, 10, 16, 0, 0, 0, eastern), PhaseAfterMarket},
		{"saturday morning", time.Date(2025, 1, 11, 10, 0, 0, 0, eastern), PhaseWeekend},
		{"saturday night", time.Date(2025, 1, 11, 23, 0, 0, 0, eastern), PhaseWeekend},
		{"sunday", time.Date(2025, 1, 12, 12, 0, 0, 0, eastern), PhaseWeekend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySession(tt.time); got != tt.want {
				t.Errorf("ClassifySession(%v) = %s, want %s", tt.time, got, tt.want)
			}
		})
	}
}

func TestClassifySessionConvertsZone(t *testing.T) {
	// 15:00 UTC on a Monday is 10:00 Eastern in January.
	utc := time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)
	if got := ClassifySession(utc); got != PhaseMarketHours {
		t.Errorf("ClassifySession(%v) = %s, want %s", utc, got, PhaseMarketHours)
	}
}
