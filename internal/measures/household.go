package measures

import (
	"fmt"
	"math"

	"github.com/wonny/ineqlab/internal/wstat"
)

// DefaultTopCode 가구원 수 상한 범주 (6 = 6인 이상)
const DefaultTopCode = 6

// SizeShare 가구원 수별 가구 비중
type SizeShare struct {
	Size       int     `json:"size"`
	TopCoded   bool    `json:"top_coded,omitempty"` // Size 이상 전부
	Households float64 `json:"households"`          // 가구 가중치 합
	Share      float64 `json:"share"`
}

// households 개인 행 → 가구 (첫 등장 순서)
// head 는 가구의 첫 행, members 는 행 수
type households struct {
	order   []string
	head    map[string]int
	members map[string]int
}

func groupHouseholds(ids []string) (households, error) {
	h := households{head: make(map[string]int), members: make(map[string]int)}
	for i, id := range ids {
		if id == "" {
			return households{}, fmt.Errorf("%w: household id[%d] is empty", wstat.ErrInvalidInput, i)
		}
		if _, ok := h.head[id]; !ok {
			h.head[id] = i
			h.order = append(h.order, id)
		}
		h.members[id]++
	}
	return h, nil
}

// HouseholdSizes 가구원 수 분포
// ids 는 개인 행의 가구 식별자, 가구 가중치는 가구 첫 행의 가중치
// 1..topCode 범주를 모두 반환 (topCode 범주는 topCode 인 이상)
func HouseholdSizes(ids []string, weights []float64, topCode int) ([]SizeShare, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no households", wstat.ErrInvalidInput)
	}
	if len(weights) != len(ids) {
		return nil, fmt.Errorf("%w: %d ids but %d weights", wstat.ErrInvalidInput, len(ids), len(weights))
	}
	if topCode < 1 {
		return nil, fmt.Errorf("%w: top code %d", wstat.ErrInvalidInput, topCode)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight[%d] = %v", wstat.ErrInvalidInput, i, w)
		}
	}

	h, err := groupHouseholds(ids)
	if err != nil {
		return nil, err
	}

	out := make([]SizeShare, topCode)
	for i := range out {
		out[i].Size = i + 1
	}
	out[topCode-1].TopCoded = true

	var total float64
	for _, id := range h.order {
		size := min(h.members[id], topCode)
		w := weights[h.head[id]]
		out[size-1].Households += w
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: household weights sum to zero", wstat.ErrDegenerate)
	}
	for i := range out {
		out[i].Share = out[i].Households / total
	}
	return out, nil
}

// HeadTransfer 비례세 + 가구주 보조금
// 모든 개인에 values·rate 를 과세하고 가구 세수 전액을 가구 첫 행(가구주)에 지급
func HeadTransfer(ids []string, values []float64, rate float64) ([]float64, error) {
	if len(values) != len(ids) {
		return nil, fmt.Errorf("%w: %d ids but %d values", wstat.ErrInvalidInput, len(ids), len(values))
	}
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return nil, fmt.Errorf("%w: tax rate %v not in [0, 1]", wstat.ErrInvalidInput, rate)
	}

	h, err := groupHouseholds(ids)
	if err != nil {
		return nil, err
	}

	revenue := make(map[string]float64, len(h.order))
	for i, id := range ids {
		revenue[id] += values[i] * rate
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - v*rate
	}
	for _, id := range h.order {
		out[h.head[id]] += revenue[id]
	}
	return out, nil
}

// TransferRatio 세율별 분위 배율
type TransferRatio struct {
	Rate  float64 `json:"rate"`
	Ratio float64 `json:"ratio"` // 최상위/최하위 분위 평균 비
}

// TransferSimulation 세율마다 HeadTransfer 후 TileRatio(n)
func TransferSimulation(ids []string, values, weights []float64, rates []float64, n int) ([]TransferRatio, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: no tax rates", wstat.ErrInvalidInput)
	}

	out := make([]TransferRatio, len(rates))
	for i, rate := range rates {
		star, err := HeadTransfer(ids, values, rate)
		if err != nil {
			return nil, err
		}
		s, err := wstat.NewSample(star, weights)
		if err != nil {
			return nil, err
		}
		ratio, err := TileRatio(s, n)
		if err != nil {
			return nil, fmt.Errorf("rate %v: %w", rate, err)
		}
		out[i] = TransferRatio{Rate: rate, Ratio: ratio}
	}
	return out, nil
}
