package measures

import (
	"fmt"
	"math"

	"github.com/wonny/ineqlab/internal/wstat"
)

// Source 소득원 한 가지 (노동, 연금, 자본, 이전소득 등)
type Source struct {
	Name   string
	Values []float64
}

// Share 소득원별 가중 합계와 총소득 대비 비중
type Share struct {
	Source string  `json:"source"`
	Total  float64 `json:"total"` // Σ w·x
	Share  float64 `json:"share"`
}

// SourceShares 소득원 구성비
// 결측(NaN)은 0으로 간주, 총소득은 모든 소득원의 합. 결과는 입력 순서.
func SourceShares(weights []float64, sources []Source) ([]Share, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no income sources", wstat.ErrInvalidInput)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight[%d] = %v", wstat.ErrInvalidInput, i, w)
		}
	}

	out := make([]Share, len(sources))
	var total float64
	for j, src := range sources {
		if len(src.Values) != len(weights) {
			return nil, fmt.Errorf("%w: source %q has %d values, want %d", wstat.ErrInvalidInput, src.Name, len(src.Values), len(weights))
		}
		var sum float64
		for i, v := range src.Values {
			if math.IsNaN(v) {
				continue
			}
			sum += weights[i] * v
		}
		out[j] = Share{Source: src.Name, Total: sum}
		total += sum
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: total income is zero", wstat.ErrDegenerate)
	}
	for j := range out {
		out[j].Share = out[j].Total / total
	}
	return out, nil
}

// Combine 여러 소득원을 하나로 합친 비중 (예: 연금 + 이전소득 = transfers)
func Combine(shares []Share, name string, parts ...string) (Share, error) {
	combined := Share{Source: name}
	for _, p := range parts {
		found := false
		for _, s := range shares {
			if s.Source == p {
				combined.Total += s.Total
				combined.Share += s.Share
				found = true
				break
			}
		}
		if !found {
			return Share{}, fmt.Errorf("%w: income source %q", wstat.ErrMissingField, p)
		}
	}
	return combined, nil
}
