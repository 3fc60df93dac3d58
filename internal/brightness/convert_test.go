package brightness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleRoundsHalfUp(t *testing.T) {
	tests := []struct {
		num, den, want uint64
	}{
		{5, 2, 3},
		{4, 2, 2},
		{1, 3, 0},
		{2, 3, 1},
		{0, 7, 0},
		{150, 100, 2},
		{149, 100, 1},
		{10, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Scale(tt.num, tt.den), "Scale(%d, %d)", tt.num, tt.den)
	}
}

func TestPercentFromRawStaysInRange(t *testing.T) {
	for _, max := range []uint32{1, 3, 7, 80, 100, 255, 1000, 65535} {
		for cur := uint32(0); cur <= max; cur += max/50 + 1 {
			p := PercentFromRaw(cur, max)
			assert.LessOrEqual(t, p, uint32(100), "cur=%d max=%d", cur, max)
		}
		assert.Equal(t, uint32(100), PercentFromRaw(max, max))
		assert.Equal(t, uint32(0), PercentFromRaw(0, max))
	}
}

func TestRoundTripWithinOneUnit(t *testing.T) {
	for max := uint32(1); max <= 200; max++ {
		for r := uint32(0); r <= max; r++ {
			back := RawFromPercent(PercentFromRaw(r, max), max)
			diff := int64(back) - int64(r)
			if diff < -1 || diff > 1 {
				t.Fatalf("max=%d r=%d round-tripped to %d", max, r, back)
			}
		}
	}
}

func TestRawFromPercentSaturates(t *testing.T) {
	assert.Equal(t, uint32(math.MaxUint32), RawFromPercent(math.MaxUint32, 65535))
	assert.Equal(t, uint32(40), RawFromPercent(50, 80))
	assert.Equal(t, uint32(8), RawFromPercent(10, 80))
}
