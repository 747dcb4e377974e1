package wstat

import (
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// 가중 백분위수 (중점 보간 규칙)
// =============================================================================
//
// F_i = (Σ_{j<=i} w_j − 0.5·w_i) / Σw 를 x_i 에 대응시킨 뒤 p 에서 선형 보간.
// p < F_1 이면 x_1, p > F_n 이면 x_n 으로 고정.
// 균등 가중치 n개 입력에서 F_1 = 0.5/n 이므로 p ∈ [0, 0.5/n] 구간은 모두 최솟값을 반환한다.
//
// N분위 배정(AssignTiles)은 별도의 상한 규칙을 사용한다. 두 규칙을 섞지 말 것.

// Percentile 중점 보간 규칙의 가중 백분위수 (p ∈ [0,1])
func Percentile(s Sample, p float64) (float64, error) {
	out, err := Percentiles(s, p)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Percentiles 여러 확률에 대한 가중 백분위수 (정렬은 한 번만 수행)
func Percentiles(s Sample, ps ...float64) ([]float64, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no probabilities requested", ErrInvalidInput)
	}
	for _, p := range ps {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: probability %v outside [0,1]", ErrInvalidInput, p)
		}
	}

	o, err := sortSample(s)
	if err != nil {
		return nil, err
	}

	frac := midpointFractions(o)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = interpolate(frac, o.x, p)
	}
	return out, nil
}

// midpointFractions F_i = (cum_i − 0.5·w_i) / total
func midpointFractions(o ordered) []float64 {
	frac := make([]float64, len(o.x))
	for i := range o.x {
		frac[i] = (o.cum[i] - 0.5*o.w[i]) / o.total
	}
	return frac
}

// interpolate xp(비감소)에 대한 fp의 구간 선형 보간, 양끝은 고정
func interpolate(xp, fp []float64, p float64) float64 {
	n := len(xp)
	if p <= xp[0] {
		return fp[0]
	}
	if p >= xp[n-1] {
		return fp[n-1]
	}

	// 첫 번째 xp[j] >= p
	j := sort.SearchFloat64s(xp, p)
	if xp[j] == p {
		return fp[j]
	}

	lo := j - 1
	t := (p - xp[lo]) / (xp[j] - xp[lo])
	return fp[lo] + t*(fp[j]-fp[lo])
}
