package views

import "math"

// Capacity tiers. Thresholds are exclusive: exactly 60% is still optimal,
// exactly 80% is still high load.
const (
	TierOptimal  = "OPTIMAL"
	TierHighLoad = "HIGH LOAD"
	TierCritical = "CRITICAL"

	highLoadAbove = 60.0
	criticalAbove = 80.0
)

// Gauge is the warehouse load indicator
type Gauge struct {
	Count      int     `json:"count"`
	Capacity   int     `json:"capacity"`
	Percentage float64 `json:"percentage"`
	Rounded    int     `json:"rounded"`
	Tier       string  `json:"tier"`
	Color      string  `json:"color"`
}

// CapacityGauge computes clamp(0, 100, 100*count/capacity) and its tier. A
// non-positive capacity reads as empty.
func CapacityGauge(count, capacity int) Gauge {
	pct := 0.0
	if capacity > 0 {
		pct = 100 * float64(count) / float64(capacity)
	}
	pct = math.Min(100, math.Max(0, pct))

	g := Gauge{
		Count:      count,
		Capacity:   capacity,
		Percentage: pct,
		Rounded:    int(math.Round(pct)),
		Tier:       TierOptimal,
		Color:      "#10b981",
	}
	switch {
	case pct > criticalAbove:
		g.Tier, g.Color = TierCritical, "#ef4444"
	case pct > highLoadAbove:
		g.Tier, g.Color = TierHighLoad, "#f59e0b"
	}
	return g
}
