package materialize

// Web-vitals thresholds and penalties for the performance score.
// Thresholds follow the standard good/poor boundaries for each vital.
const (
	lcpPoorMs     = 4000.0
	lcpDegradedMs = 2500.0
	fidPoorMs     = 300.0
	fidDegradedMs = 100.0
	clsPoor       = 0.25
	clsDegraded   = 0.1

	lcpPoorPenalty     = 30
	lcpDegradedPenalty = 15
	fidPoorPenalty     = 25
	fidDegradedPenalty = 10
	clsPoorPenalty     = 20
	clsDegradedPenalty = 10
)

// PerformanceScore grades a completed journey's web vitals on a 0-100
// scale: 100 minus a fixed penalty per breached threshold, floored at 0.
// It is a pure function of the three vitals.
func PerformanceScore(lcp, fid, cls float64) int {
	score := 100

	switch {
	case lcp > lcpPoorMs:
		score -= lcpPoorPenalty
	case lcp > lcpDegradedMs:
		score -= lcpDegradedPenalty
	}

	switch {
	case fid > fidPoorMs:
		score -= fidPoorPenalty
	case fid > fidDegradedMs:
		score -= fidDegradedPenalty
	}

	switch {
	case cls > clsPoor:
		score -= clsPoorPenalty
	case cls > clsDegraded:
		score -= clsDegradedPenalty
	}

	if score < 0 {
		score = 0
	}
	return score
}
