package wstat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLorenz_Scenario(t *testing.T) {
	s, err := UnitSample([]float64{1, 1, 1, 1, 10})
	require.NoError(t, err)

	c, err := Lorenz(s)
	require.NoError(t, err)
	assert.Equal(t, KindLorenz, c.Kind)

	xs, ys := c.XY()
	wantX := []float64{0.2, 0.4, 0.6, 0.8, 1.0}
	wantY := []float64{1.0 / 14, 2.0 / 14, 3.0 / 14, 4.0 / 14, 1.0}
	assert.InDeltaSlice(t, wantX, xs, 1e-12)
	assert.InDeltaSlice(t, wantY, ys, 1e-12)

	// 마지막 점은 정확히 (1, 1)
	assert.Equal(t, Point{X: 1, Y: 1}, c.Final())
}

func TestLorenz_BelowDiagonal(t *testing.T) {
	s, err := NewSample(
		[]float64{120, 5, 48, 300, 17, 17, 90},
		[]float64{1, 3, 2, 0.5, 4, 1, 2},
	)
	require.NoError(t, err)

	c, err := Lorenz(s)
	require.NoError(t, err)

	prev := Point{}
	for _, p := range c.Points {
		assert.LessOrEqual(t, p.Y, p.X+1e-12)
		assert.GreaterOrEqual(t, p.X, prev.X)
		assert.GreaterOrEqual(t, p.Y, prev.Y)
		prev = p
	}
	assert.Equal(t, 1.0, c.Final().X)
	assert.Equal(t, 1.0, c.Final().Y)
}

func TestLorenz_WithOrigin(t *testing.T) {
	s, err := UnitSample([]float64{2, 4})
	require.NoError(t, err)

	c, err := Lorenz(s)
	require.NoError(t, err)
	require.Len(t, c.Points, 2)

	o := c.WithOrigin()
	require.Len(t, o.Points, 3)
	assert.Equal(t, Point{}, o.Points[0])
	assert.Equal(t, c.Points[0], o.Points[1])
	assert.Len(t, c.Points, 2, "original curve unchanged")
}

func TestLorenz_ZeroIncome(t *testing.T) {
	s, err := UnitSample([]float64{0, 0, 0})
	require.NoError(t, err)

	_, err = Lorenz(s)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestGeneralizedLorenz_EndsAtMean(t *testing.T) {
	s, err := NewSample([]float64{10, 20, 30}, []float64{1, 1, 2})
	require.NoError(t, err)

	c, err := GeneralizedLorenz(s)
	require.NoError(t, err)
	assert.Equal(t, KindGeneralizedLorenz, c.Kind)

	// 누적 소득 10, 30, 90 / 총 인구 4
	_, ys := c.XY()
	assert.InDeltaSlice(t, []float64{2.5, 7.5, 22.5}, ys, 1e-12)

	mean, err := Mean(s)
	require.NoError(t, err)
	assert.InDelta(t, mean, c.Final().Y, 1e-12)
	assert.Equal(t, 1.0, c.Final().X)
}

func TestCDF(t *testing.T) {
	s, err := UnitSample([]float64{4, 1, 3, 2})
	require.NoError(t, err)

	c, err := CDF(s, CurveOptions{})
	require.NoError(t, err)

	xs, ys := c.XY()
	assert.Equal(t, []float64{1, 2, 3, 4}, xs)
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75, 1}, ys, 1e-12)
}

func TestCDF_CutoffInclusive(t *testing.T) {
	s, err := UnitSample([]float64{1, 2, 3, 4})
	require.NoError(t, err)

	c, err := CDF(s, CurveOptions{Cutoff: 0.5})
	require.NoError(t, err)
	assert.Len(t, c.Points, 2)
	assert.Equal(t, 0.5, c.Final().Y)
}

func TestCDF_Log(t *testing.T) {
	s, err := UnitSample([]float64{0, 9, 99})
	require.NoError(t, err)

	_, err = CDF(s, CurveOptions{Log: true})
	assert.ErrorIs(t, err, ErrInvalidInput, "log(0) must be rejected")

	c, err := CDF(s, CurveOptions{Log: true, LogOffset: 1})
	require.NoError(t, err)
	xs, _ := c.XY()
	assert.InDeltaSlice(t, []float64{0, math.Log(10), math.Log(100)}, xs, 1e-12)
}

func TestCDF_AllEqual(t *testing.T) {
	s, err := UnitSample([]float64{5, 5, 5})
	require.NoError(t, err)

	_, err = CDF(s, CurveOptions{})
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestPareto(t *testing.T) {
	s, err := UnitSample([]float64{1, 2, 3, 4})
	require.NoError(t, err)

	c, err := Pareto(s, CurveOptions{})
	require.NoError(t, err)
	assert.Equal(t, KindPareto, c.Kind)

	// S=1 인 마지막 관측치는 항상 제외
	require.Len(t, c.Points, 3)
	xs, ys := c.XY()
	assert.InDeltaSlice(t, []float64{0, math.Log(2), math.Log(3)}, xs, 1e-12)
	assert.InDeltaSlice(t, []float64{math.Log(0.75), math.Log(0.5), math.Log(0.25)}, ys, 1e-12)

	for i := 1; i < len(ys); i++ {
		assert.LessOrEqual(t, ys[i], ys[i-1])
	}
}

func TestPareto_CutoffExclusive(t *testing.T) {
	s, err := UnitSample([]float64{1, 2, 3, 4})
	require.NoError(t, err)

	c, err := Pareto(s, CurveOptions{Cutoff: 0.5})
	require.NoError(t, err)
	assert.Len(t, c.Points, 1)
}

func TestCurveOptions_InvalidCutoff(t *testing.T) {
	s, err := UnitSample([]float64{1, 2, 3})
	require.NoError(t, err)

	_, err = CDF(s, CurveOptions{Cutoff: 1.5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Pareto(s, CurveOptions{Cutoff: -0.1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
