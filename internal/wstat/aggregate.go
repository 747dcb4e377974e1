package wstat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Moments 가중 적률 결과
// 분산은 모집단 분산: Σw(x-μ)² / Σw
type Moments struct {
	Count         int     `json:"count"`          // 관측치 수 (가중치 미반영)
	WeightedCount float64 `json:"weighted_count"` // Σw (대표 인구)
	Mean          float64 `json:"mean"`
	Variance      float64 `json:"variance"`
	StdDev        float64 `json:"std_dev"`
}

// Aggregate 가중 평균/분산/표준편차 계산
func Aggregate(s Sample) (Moments, error) {
	total, err := s.checked()
	if err != nil {
		return Moments{}, err
	}

	mean, variance := stat.PopMeanVariance(s.Values, s.Weights)
	if variance < 0 {
		// 보정항 반올림으로 상수 데이터에서 -0에 가까운 값이 나올 수 있음
		variance = 0
	}

	return Moments{
		Count:         len(s.Values),
		WeightedCount: total,
		Mean:          mean,
		Variance:      variance,
		StdDev:        math.Sqrt(variance),
	}, nil
}

// CV 변동계수 σ/μ
// 평균이 0이면 NaN 대신 ErrDegenerate
func (m Moments) CV() (float64, error) {
	if m.Mean == 0 {
		return 0, fmt.Errorf("%w: coefficient of variation with zero mean", ErrDegenerate)
	}
	return m.StdDev / m.Mean, nil
}

// Mean 가중 평균
func Mean(s Sample) (float64, error) {
	m, err := Aggregate(s)
	return m.Mean, err
}

// Variance 가중 모집단 분산
func Variance(s Sample) (float64, error) {
	m, err := Aggregate(s)
	return m.Variance, err
}

// StdDev 가중 표준편차
func StdDev(s Sample) (float64, error) {
	m, err := Aggregate(s)
	return m.StdDev, err
}

// CV 가중 변동계수
func CV(s Sample) (float64, error) {
	m, err := Aggregate(s)
	if err != nil {
		return 0, err
	}
	return m.CV()
}
