package pluginapi

import "math"

// ComputeDefault implements the closed default-value formula: explicit
// constants return that constant, min/max return the respective
// bound, low/middle/high interpolate between the bounds (linearly, or
// geometrically in log-domain when logarithmic is set), and none
// returns 0.
func ComputeDefault(hint DefaultHint, logarithmic bool, lower, upper float64) float64 {
	switch hint {
	case DefaultNone:
		return 0
	case Default0:
		return 0
	case Default1:
		return 1
	case Default100:
		return 100
	case Default440:
		return 440
	case DefaultMin:
		return lower
	case DefaultMax:
		return upper
	case DefaultLow:
		return interpolate(lower, upper, 0.75, logarithmic)
	case DefaultMiddle:
		return interpolate(lower, upper, 0.5, logarithmic)
	case DefaultHigh:
		return interpolate(lower, upper, 0.25, logarithmic)
	default:
		return 0
	}
}

// interpolate returns the value lo·weight + hi·(1-weight) for the
// linear case, or the log-domain equivalent exp(ln(lo)·weight +
// ln(hi)·(1-weight)) when logarithmic is set.
func interpolate(lo, hi, weight float64, logarithmic bool) float64 {
	if !logarithmic {
		return lo*weight + hi*(1-weight)
	}
	return math.Exp(math.Log(lo)*weight + math.Log(hi)*(1-weight))
}
