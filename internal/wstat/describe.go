package wstat

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
)

// Summary 가중치를 반영한 describe 결과
// ⭐ 백분위수는 중점 보간 규칙(Percentile)을 사용
type Summary struct {
	Count         int     `json:"count"`
	WeightedCount float64 `json:"count_w"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std"`
	Min           float64 `json:"min"`
	P25           float64 `json:"p25"`
	P50           float64 `json:"p50"`
	P75           float64 `json:"p75"`
	Max           float64 `json:"max"`
	CV            float64 `json:"cv"`
}

// Row 출력용 (라벨, 값) 쌍
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Describe Aggregator + 백분위수 조합
func Describe(s Sample) (Summary, error) {
	m, err := Aggregate(s)
	if err != nil {
		return Summary{}, err
	}
	cv, err := m.CV()
	if err != nil {
		return Summary{}, err
	}
	q, err := Percentiles(s, 0.25, 0.50, 0.75)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Count:         m.Count,
		WeightedCount: m.WeightedCount,
		Mean:          m.Mean,
		StdDev:        m.StdDev,
		Min:           floats.Min(s.Values),
		P25:           q[0],
		P50:           q[1],
		P75:           q[2],
		Max:           floats.Max(s.Values),
		CV:            cv,
	}, nil
}

// Rows describe 표 순서대로 포맷된 행
// count, count_w 는 천 단위 구분, 나머지는 소수 둘째 자리
func (s Summary) Rows() []Row {
	return []Row{
		{"count", humanize.Comma(int64(s.Count))},
		{"count_w", humanize.Commaf(s.WeightedCount)},
		{"mean", fixed2(s.Mean)},
		{"std", fixed2(s.StdDev)},
		{"min", fixed2(s.Min)},
		{"25%", fixed2(s.P25)},
		{"50%", fixed2(s.P50)},
		{"75%", fixed2(s.P75)},
		{"max", fixed2(s.Max)},
		{"cv", fixed2(s.CV)},
	}
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
