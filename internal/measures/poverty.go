// Package measures 코어(wstat) 위에 조합한 분배 지표
// 빈곤율, 분위 배율, 분위별 표, 박스플롯 입력, 소득원 구성비, 가구원 수 분포
package measures

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/wonny/ineqlab/internal/wstat"
)

// Poverty 빈곤 인원 비율 (FGT0)
type Poverty struct {
	Line           float64 `json:"line"`
	Rate           float64 `json:"rate"`            // 가중 빈곤율
	UnweightedRate float64 `json:"unweighted_rate"` // 표본 빈곤율 (가중치 미반영)
	Population     float64 `json:"population"`      // Σw
	PoorPopulation float64 `json:"poor_population"` // Rate · Σw
	PoorCount      int     `json:"poor_count"`      // 빈곤선 미만 관측치 수
}

// Headcount 빈곤선 미만(strict) 인구 비율
func Headcount(s wstat.Sample, line float64) (Poverty, error) {
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return Poverty{}, fmt.Errorf("%w: poverty line %v", wstat.ErrInvalidInput, line)
	}

	poor := s.Map(func(v float64) float64 {
		if v < line {
			return 1
		}
		return 0
	})

	m, err := wstat.Aggregate(poor)
	if err != nil {
		return Poverty{}, err
	}

	unweighted, err := stats.Mean(poor.Values)
	if err != nil {
		return Poverty{}, fmt.Errorf("%w: %v", wstat.ErrInvalidInput, err)
	}
	count, err := stats.Sum(poor.Values)
	if err != nil {
		return Poverty{}, fmt.Errorf("%w: %v", wstat.ErrInvalidInput, err)
	}

	return Poverty{
		Line:           line,
		Rate:           m.Mean,
		UnweightedRate: unweighted,
		Population:     m.WeightedCount,
		PoorPopulation: m.Mean * m.WeightedCount,
		PoorCount:      int(count),
	}, nil
}
