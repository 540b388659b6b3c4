package journey

import "time"

// Phase classifies wall-clock time against the US equity trading calendar
type Phase string

const (
	PhaseWeekend     Phase = "weekend"
	PhasePreMarket   Phase = "pre_market"
	PhaseMarketHours Phase = "market_hours"
	PhaseAfterMarket Phase = "after_market"
	PhaseClosed      Phase = "closed"
)

// Trading-hours table, minutes since midnight Eastern.
const (
	extendedOpenMin  = 4 * 60    // 04:00, earliest extended-hours trading
	marketOpenMin    = 9*60 + 30 // 09:30
	marketCloseMin   = 16 * 60   // 16:00
	extendedCloseMin = 20 * 60   // 20:00, latest extended-hours trading
)

var eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Hosts without tzdata lose DST awareness but keep a usable offset.
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// ClassifySession maps an instant onto the trading calendar.
// Saturday and Sunday are weekend regardless of hour; outside
// 04:00-20:00 Eastern the market is closed on any weekday.
func ClassifySession(t time.Time) Phase {
	et := t.In(eastern)

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return PhaseWeekend
	}

	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes < extendedOpenMin || minutes >= extendedCloseMin:
		return PhaseClosed
	case minutes >= marketOpenMin && minutes < marketCloseMin:
		return PhaseMarketHours
	case minutes < marketOpenMin:
		return PhasePreMarket
	default:
		return PhaseAfterMarket
	}
}
