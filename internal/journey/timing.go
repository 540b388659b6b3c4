package journey

// PageTiming is a snapshot of page-load timing, milliseconds per stage.
// In the browser these come from the Navigation Timing API; embedded
// hosts supply whatever equivalents they measure.
type PageTiming struct {
	RedirectMs float64
	DNSMs      float64
	ConnectMs  float64
	ResponseMs float64
	DOMReadyMs float64
	LoadMs     float64
}

// PageTimingSource provides the timing snapshot taken when a journey
// starts. The bool reports whether timing data is available yet; a page
// still loading has none.
type PageTimingSource interface {
	Snapshot() (PageTiming, bool)
}

// StaticTiming is a fixed PageTimingSource, useful for tests and for
// hosts that measure load timing once up front.
type StaticTiming struct {
	Timing PageTiming
}

func (s StaticTiming) Snapshot() (PageTiming, bool) { return s.Timing, true }

// NoTiming reports no timing data.
type NoTiming struct{}

func (NoTiming) Snapshot() (PageTiming, bool) { return PageTiming{}, false }

func (p PageTiming) attrs() Attrs {
	return Attrs{
		"page.timing.redirect_ms":  p.RedirectMs,
		"page.timing.dns_ms":       p.DNSMs,
		"page.timing.connect_ms":   p.ConnectMs,
		"page.timing.response_ms":  p.ResponseMs,
		"page.timing.dom_ready_ms": p.DOMReadyMs,
		"page.timing.load_ms":      p.LoadMs,
	}
}
