package wstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile_UnitWeights(t *testing.T) {
	// F = [1/6, 1/2, 5/6]
	s, err := UnitSample([]float64{3, 1, 2})
	require.NoError(t, err)

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.1, 1},  // p < F_1 → 최솟값
		{0.25, 1.25},
		{0.5, 2},
		{0.9, 3},  // p > F_n → 최댓값
		{1, 3},
	}

	for _, tt := range tests {
		got, err := Percentile(s, tt.p)
		require.NoError(t, err)
		if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestPercentile_MinimumPlateau(t *testing.T) {
	// n=4 → F_1 = 0.5/4 = 0.125, [0, 0.125] 구간은 모두 최솟값
	s, err := UnitSample([]float64{10, 20, 30, 40})
	require.NoError(t, err)

	for _, p := range []float64{0, 0.05, 0.1, 0.125} {
		got, err := Percentile(s, p)
		require.NoError(t, err)
		assert.Equal(t, 10.0, got, "p=%v", p)
	}

	got, err := Percentile(s, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got, 1e-12)
}

func TestPercentile_SymmetricMedian(t *testing.T) {
	s, err := NewSample([]float64{-2, -1, 0, 1, 2}, []float64{1, 3, 5, 3, 1})
	require.NoError(t, err)

	got, err := Percentile(s, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-12)
}

func TestPercentiles_Weighted(t *testing.T) {
	// cum = 1,2,4 → F = 0.125, 0.375, 0.75
	s, err := NewSample([]float64{10, 20, 30}, []float64{1, 1, 2})
	require.NoError(t, err)

	got, err := Percentiles(s, 0.125, 0.375, 0.5, 0.75)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDelta(t, 10.0, got[0], 1e-12)
	assert.InDelta(t, 20.0, got[1], 1e-12)
	assert.InDelta(t, 20.0+10.0/3.0, got[2], 1e-9)
	assert.InDelta(t, 30.0, got[3], 1e-12)
}

func TestPercentiles_Monotone(t *testing.T) {
	s, err := NewSample(
		[]float64{5, 1, 9, 3, 7, 3, 12},
		[]float64{2, 1, 0.5, 4, 1, 1, 3},
	)
	require.NoError(t, err)

	ps := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	got, err := Percentiles(s, ps...)
	require.NoError(t, err)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1], "percentile decreased at p=%v", ps[i])
	}
	assert.Equal(t, 1.0, got[0])
	assert.Equal(t, 12.0, got[len(got)-1])
}

func TestPercentile_InvalidProbability(t *testing.T) {
	s, err := UnitSample([]float64{1, 2, 3})
	require.NoError(t, err)

	for _, p := range []float64{-0.1, 1.5} {
		_, err := Percentile(s, p)
		assert.ErrorIs(t, err, ErrInvalidInput, "p=%v", p)
	}

	_, err = Percentiles(s)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPercentile_EmptySample(t *testing.T) {
	_, err := Percentile(Sample{}, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
