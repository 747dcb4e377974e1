package measures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ineqlab/internal/wstat"
)

func TestHouseholdSizes(t *testing.T) {
	// a: 2인, b: 1인, c: 3인, d: 1인 (가구 가중치는 첫 행)
	ids := []string{"a", "a", "b", "c", "c", "c", "d"}
	weights := []float64{2, 9, 3, 1, 1, 1, 4}

	sizes, err := HouseholdSizes(ids, weights, 2)
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.Equal(t, SizeShare{Size: 1, Households: 7, Share: 0.7}, sizes[0])
	assert.Equal(t, 2, sizes[1].Size)
	assert.True(t, sizes[1].TopCoded)
	assert.InDelta(t, 3, sizes[1].Households, 1e-12)
	assert.InDelta(t, 0.3, sizes[1].Share, 1e-12)

	full, err := HouseholdSizes(ids, weights, DefaultTopCode)
	require.NoError(t, err)
	require.Len(t, full, 6)
	assert.InDelta(t, 0.2, full[1].Share, 1e-12)
	assert.InDelta(t, 0.1, full[2].Share, 1e-12)
	assert.Zero(t, full[5].Households)

	var sum float64
	for _, s := range full {
		sum += s.Share
	}
	assert.InDelta(t, 1, sum, 1e-12)
}

func TestHouseholdSizes_Errors(t *testing.T) {
	_, err := HouseholdSizes(nil, nil, 6)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)

	_, err = HouseholdSizes([]string{"a"}, []float64{1, 2}, 6)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)

	_, err = HouseholdSizes([]string{"a", ""}, []float64{1, 1}, 6)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)

	_, err = HouseholdSizes([]string{"a"}, []float64{1}, 0)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)

	_, err = HouseholdSizes([]string{"a", "a"}, []float64{0, 5}, 6)
	assert.ErrorIs(t, err, wstat.ErrDegenerate)
}

func TestHeadTransfer(t *testing.T) {
	ids := []string{"a", "a", "b"}
	values := []float64{100, 50, 10}

	star, err := HeadTransfer(ids, values, 0.1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{105, 45, 10}, star, 1e-9)

	// 가구 내 재분배라 총합은 그대로
	var before, after float64
	for i := range values {
		before += values[i]
		after += star[i]
	}
	assert.InDelta(t, before, after, 1e-9)

	same, err := HeadTransfer(ids, values, 0)
	require.NoError(t, err)
	assert.Equal(t, values, same)

	_, err = HeadTransfer(ids, values, 1.5)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)
	_, err = HeadTransfer(ids[:2], values, 0.1)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)
}

func TestTransferSimulation(t *testing.T) {
	ids := []string{"a", "b", "b"}
	values := []float64{10, 20, 40}
	weights := []float64{1, 1, 1}

	got, err := TransferSimulation(ids, values, weights, []float64{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// 세율 0: {10} vs {20, 40}
	assert.Equal(t, 0.0, got[0].Rate)
	assert.InDelta(t, 3, got[0].Ratio, 1e-12)
	// 세율 1: 가구주만 가구 소득 전부 (10, 60), 나머지 0 은 제외
	assert.InDelta(t, 6, got[1].Ratio, 1e-12)

	_, err = TransferSimulation(ids, values, weights, nil, 2)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)
}
