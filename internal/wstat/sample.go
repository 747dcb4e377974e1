package wstat

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// =============================================================================
// Errors
// =============================================================================

// ⭐ SSOT: 코어 에러 분류 (호출자는 errors.Is 로 판별)
var (
	ErrInvalidInput = errors.New("invalid input")          // 빈 시리즈, 길이 불일치, 음수 가중치, 잘못된 분위 수/확률
	ErrDegenerate   = errors.New("degenerate computation") // 평균 0인 CV, 총 가중치 0, 축 정렬 불가
	ErrMissingField = errors.New("missing field")          // 요청한 컬럼/파티션 없음
)

// =============================================================================
// Sample
// =============================================================================

// Sample 가중 관측치 집합 (값, 확장계수)
// ⭐ SSOT: 모든 가중 통계는 이 타입을 입력으로 받음
// 생성 후 변경하지 않음. 변환은 항상 새 Sample을 만든다.
type Sample struct {
	Values  []float64 `json:"values"`
	Weights []float64 `json:"weights"`
}

// NewSample 검증 후 입력을 복사하여 Sample 생성
func NewSample(values, weights []float64) (Sample, error) {
	s := Sample{Values: values, Weights: weights}
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}

	return Sample{
		Values:  append([]float64(nil), values...),
		Weights: append([]float64(nil), weights...),
	}, nil
}

// UnitSample 모든 가중치가 1인 Sample 생성 (가중치 미지정 시)
func UnitSample(values []float64) (Sample, error) {
	weights := make([]float64, len(values))
	for i := range weights {
		weights[i] = 1
	}
	return NewSample(values, weights)
}

// Validate 입력 계약 검사
func (s Sample) Validate() error {
	if len(s.Values) == 0 {
		return fmt.Errorf("%w: empty value series", ErrInvalidInput)
	}
	if len(s.Weights) != len(s.Values) {
		return fmt.Errorf("%w: %d values but %d weights", ErrInvalidInput, len(s.Values), len(s.Weights))
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value[%d] is not finite", ErrInvalidInput, i)
		}
	}
	for i, w := range s.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%w: weight[%d] = %v", ErrInvalidInput, i, w)
		}
	}
	return nil
}

// Len 관측치 수 (가중치 미반영)
func (s Sample) Len() int {
	return len(s.Values)
}

// TotalWeight 총 가중치 (Σw, 모집단 규모)
func (s Sample) TotalWeight() float64 {
	return floats.Sum(s.Weights)
}

// Subset 지정한 위치의 관측치만 모은 새 Sample
func (s Sample) Subset(idx []int) Sample {
	out := Sample{
		Values:  make([]float64, len(idx)),
		Weights: make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Values[i] = s.Values[j]
		out.Weights[i] = s.Weights[j]
	}
	return out
}

// Map 값에 f를 적용한 새 Sample (가중치 유지)
func (s Sample) Map(f func(float64) float64) Sample {
	out := Sample{
		Values:  make([]float64, len(s.Values)),
		Weights: append([]float64(nil), s.Weights...),
	}
	for i, v := range s.Values {
		out.Values[i] = f(v)
	}
	return out
}

// checked 검증 + 총 가중치 0 검사
func (s Sample) checked() (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	total := s.TotalWeight()
	if total == 0 {
		return 0, fmt.Errorf("%w: total weight is zero", ErrDegenerate)
	}
	return total, nil
}

// =============================================================================
// 정렬된 누적 가중치 뷰
// =============================================================================

// ordered 값 오름차순 (안정 정렬, 동률은 원래 순서) 관측치와 누적 가중치
type ordered struct {
	idx   []int     // 원래 위치
	x     []float64 // 정렬된 값
	w     []float64 // 정렬된 가중치
	cum   []float64 // Σ_{j<=i} w_j
	total float64   // cum[n-1]
}

func sortSample(s Sample) (ordered, error) {
	if _, err := s.checked(); err != nil {
		return ordered{}, err
	}

	n := len(s.Values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Values[idx[a]] < s.Values[idx[b]]
	})

	o := ordered{
		idx: idx,
		x:   make([]float64, n),
		w:   make([]float64, n),
		cum: make([]float64, n),
	}
	for i, j := range idx {
		o.x[i] = s.Values[j]
		o.w[i] = s.Weights[j]
	}
	floats.CumSum(o.cum, o.w)

	// 마지막 누적값을 분모로 사용해야 최종 비중이 정확히 1.0
	o.total = o.cum[n-1]
	return o, nil
}

// shares 누적 인구 비중 S_i = Σ_{j<=i} w_j / Σw
func (o ordered) shares() []float64 {
	out := make([]float64, len(o.cum))
	for i, c := range o.cum {
		out[i] = c / o.total
	}
	return out
}
