package measures

import (
	"fmt"

	"github.com/wonny/ineqlab/internal/wstat"
)

// TileRatio 최상위 분위 평균 / 최하위 분위 평균
// 양(+)의 값만 사용 (0, 음수 소득 제외 후 분위 재계산)
func TileRatio(s wstat.Sample, n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: tile ratio needs at least 2 tiles, got %d", wstat.ErrInvalidInput, n)
	}

	pos, err := Positive(s)
	if err != nil {
		return 0, err
	}

	tiles, err := wstat.AssignTiles(pos, n)
	if err != nil {
		return 0, err
	}

	bottom, ok := tiles.Group(1)
	if !ok {
		return 0, fmt.Errorf("%w: bottom tile is empty", wstat.ErrDegenerate)
	}
	top, ok := tiles.Group(n)
	if !ok {
		return 0, fmt.Errorf("%w: top tile is empty", wstat.ErrDegenerate)
	}

	lo, err := wstat.Mean(bottom)
	if err != nil {
		return 0, fmt.Errorf("bottom tile: %w", err)
	}
	hi, err := wstat.Mean(top)
	if err != nil {
		return 0, fmt.Errorf("top tile: %w", err)
	}

	return hi / lo, nil
}

// QuintileRatio Q5/Q1
func QuintileRatio(s wstat.Sample) (float64, error) {
	return TileRatio(s, 5)
}

// Positive 값이 0보다 큰 관측치만 남긴 Sample
func Positive(s wstat.Sample) (wstat.Sample, error) {
	if err := s.Validate(); err != nil {
		return wstat.Sample{}, err
	}

	idx := make([]int, 0, s.Len())
	for i, v := range s.Values {
		if v > 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return wstat.Sample{}, fmt.Errorf("%w: no positive values", wstat.ErrInvalidInput)
	}
	return s.Subset(idx), nil
}
