package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iptr(n int) *int { return &n }

func TestSumCounts(t *testing.T) {
	assert.Nil(t, SumCounts(nil, nil, nil), "all unknown stays unknown")
	assert.Equal(t, 0, *SumCounts(nil, iptr(0)), "a known zero beats unknown")
	assert.Equal(t, 6, *SumCounts(iptr(1), iptr(2), iptr(3)))
	assert.Equal(t, 3, *SumCounts(iptr(3), nil))
	assert.Nil(t, SumCounts())
}

func TestRatio(t *testing.T) {
	assert.Nil(t, Ratio(nil, iptr(10)))
	assert.Nil(t, Ratio(iptr(3), nil))
	assert.Nil(t, Ratio(iptr(3), iptr(0)), "zero capacity yields no ratio, not infinity")
	require.NotNil(t, Ratio(iptr(3), iptr(10)))
	assert.Equal(t, 0.3, *Ratio(iptr(3), iptr(10)))
	assert.Equal(t, 0.333, *Ratio(iptr(1), iptr(3)), "rounded to three decimals")
	assert.Equal(t, 0.0, *Ratio(iptr(0), iptr(10)))
}

func TestBuildAgeStats(t *testing.T) {
	s := BuildAgeStats(iptr(2), iptr(4), iptr(18))
	assert.Equal(t, 20, *s.CapacityEst, "capacity is accepting plus enrolled")
	assert.Equal(t, 0.2, *s.WaitPerCapacityEst)

	s = BuildAgeStats(iptr(2), nil, nil)
	assert.Equal(t, 2, *s.CapacityEst)
	assert.Nil(t, s.WaitPerCapacityEst, "unknown wait yields no ratio")

	s = BuildAgeStats(nil, iptr(1), nil)
	assert.Nil(t, s.CapacityEst)
	assert.Nil(t, s.WaitPerCapacityEst)
}
