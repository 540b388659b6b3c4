package journey

import "sync"

// Vitals is a web-vitals snapshot: largest contentful paint and first
// input delay in milliseconds, cumulative layout shift unitless.
type Vitals struct {
	LCP float64
	FID float64
	CLS float64
}

// VitalsSource provides the vitals snapshot attached when a journey
// ends. The bool reports whether any vitals have been observed.
type VitalsSource interface {
	Snapshot() (Vitals, bool)
}

// VitalsCollector accumulates vitals from passive page observers.
// Observers report each metric as it lands; Snapshot returns the latest
// values. Safe for concurrent use.
type VitalsCollector struct {
	mu       sync.Mutex
	vitals   Vitals
	observed bool
}

// NewVitalsCollector creates an empty collector
func NewVitalsCollector() *VitalsCollector {
	return &VitalsCollector{}
}

// ObserveLCP records a largest-contentful-paint observation
func (c *VitalsCollector) ObserveLCP(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vitals.LCP = ms
	c.observed = true
}

// ObserveFID records a first-input-delay observation
func (c *VitalsCollector) ObserveFID(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vitals.FID = ms
	c.observed = true
}

// ObserveCLS records a cumulative-layout-shift observation.
// CLS accumulates over the page lifetime, so the caller reports the
// running total, not a delta.
func (c *VitalsCollector) ObserveCLS(score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vitals.CLS = score
	c.observed = true
}

// Snapshot returns the latest vitals and whether any were observed
func (c *VitalsCollector) Snapshot() (Vitals, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vitals, c.observed
}

func (v Vitals) attrs() Attrs {
	return Attrs{
		"lcp": v.LCP,
		"fid": v.FID,
		"cls": v.CLS,
	}
}
