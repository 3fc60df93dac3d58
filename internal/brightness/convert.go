package brightness

import "math"

// Scale divides numerator by denominator rounding half up.
// A zero denominator yields 0.
func Scale(numerator, denominator uint64) uint64 {
	if denominator == 0 {
		return 0
	}
	return (numerator + denominator/2) / denominator
}

// RawFromPercent converts a percentage into device units for a device whose
// maximum is max. Values above 100 scale past max and saturate at MaxUint32.
func RawFromPercent(percent, max uint32) uint32 {
	return saturate(Scale(uint64(percent)*uint64(max), 100))
}

// PercentFromRaw converts device units into a percentage of max.
func PercentFromRaw(raw, max uint32) uint32 {
	return saturate(Scale(uint64(raw)*100, uint64(max)))
}

func saturate(v uint64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
