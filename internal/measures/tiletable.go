package measures

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/wonny/ineqlab/internal/wstat"
)

// TileRow 분위별 통계 한 줄
type TileRow struct {
	Tile       int     `json:"tile"`
	Mean       float64 `json:"mean"`       // 가중 평균
	StdDev     float64 `json:"std"`        // 가중 표준편차
	Population float64 `json:"population"` // Σw
	StdError   float64 `json:"std_error"`  // StdDev / √Count

	Count              int     `json:"count"`
	UnweightedMean     float64 `json:"unweighted_mean"`
	UnweightedStdDev   float64 `json:"unweighted_std"` // 표본 표준편차 (n-1)
	UnweightedStdError float64 `json:"unweighted_std_error"`
}

// TileTable 값 자신을 기준으로 N분위를 나눈 뒤 분위별 통계
func TileTable(s wstat.Sample, n int) ([]TileRow, error) {
	return TileTableBy(s, s.Values, n)
}

// TileTableBy ranking 기준으로 N분위를 나누고 measure 열의 분위별 통계를 계산
// 예: 노동소득 분위별 저기술 산업 종사 비율
func TileTableBy(ranking wstat.Sample, measure []float64, n int) ([]TileRow, error) {
	if len(measure) != ranking.Len() {
		return nil, fmt.Errorf("%w: measure has %d values, ranking has %d", wstat.ErrInvalidInput, len(measure), ranking.Len())
	}

	tiles, err := wstat.AssignTiles(ranking, n)
	if err != nil {
		return nil, err
	}

	target := wstat.Sample{Values: measure, Weights: ranking.Weights}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	buckets := tiles.Buckets()
	members := make(map[int][]int, n)
	for i, k := range buckets {
		members[k] = append(members[k], i)
	}

	rows := make([]TileRow, 0, n)
	for k := 1; k <= n; k++ {
		idx, ok := members[k]
		if !ok {
			continue
		}
		row, err := tileRow(k, target.Subset(idx))
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", k, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func tileRow(k int, s wstat.Sample) (TileRow, error) {
	m, err := wstat.Aggregate(s)
	if err != nil {
		return TileRow{}, err
	}

	mean, err := stats.Mean(s.Values)
	if err != nil {
		return TileRow{}, err
	}

	// 관측치 1개면 표본 표준편차 정의 불가 → 0
	var sd float64
	if s.Len() > 1 {
		if sd, err = stats.StandardDeviationSample(s.Values); err != nil {
			return TileRow{}, err
		}
	}

	root := math.Sqrt(float64(s.Len()))
	return TileRow{
		Tile:               k,
		Mean:               m.Mean,
		StdDev:             m.StdDev,
		Population:         m.WeightedCount,
		StdError:           m.StdDev / root,
		Count:              m.Count,
		UnweightedMean:     mean,
		UnweightedStdDev:   sd,
		UnweightedStdError: sd / root,
	}, nil
}
