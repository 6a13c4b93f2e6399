package analytics

import "math"

// SafeNumber degrades NaN and ±Inf to 0 so they never reach a total.
func SafeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SafePtr returns SafeNumber(*v), or 0 when v is nil.
func SafePtr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return SafeNumber(*v)
}

// isFinitePtr reports whether v is present and neither NaN nor infinite.
func isFinitePtr(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// divOrZero returns num/den, or 0 when den is 0.
func divOrZero(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
