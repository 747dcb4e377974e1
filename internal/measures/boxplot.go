package measures

import (
	"github.com/wonny/ineqlab/internal/wstat"
)

// whiskerSpan 수염 길이 = 1.5 · IQR
const whiskerSpan = 1.5

// BoxPlot 가중 박스플롯 입력값
type BoxPlot struct {
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"` // max(0, P25 - 1.5·IQR)
	Upper float64 `json:"upper"` // P75 + 1.5·IQR
}

// Box 사분위수와 수염 경계 (백분위수는 중점 보간 규칙)
// 하단 수염은 소득 분포를 전제로 0에서 자름
func Box(s wstat.Sample) (BoxPlot, error) {
	q, err := wstat.Percentiles(s, 0.25, 0.50, 0.75)
	if err != nil {
		return BoxPlot{}, err
	}

	iqr := q[2] - q[0]
	return BoxPlot{
		P25:   q[0],
		P50:   q[1],
		P75:   q[2],
		IQR:   iqr,
		Lower: max(0, q[0]-whiskerSpan*iqr),
		Upper: q[2] + whiskerSpan*iqr,
	}, nil
}
