// Package render 분석 결과 출력 어댑터
// PNG(gonum/plot), HTML(go-echarts), CSV(yacr)
package render

import "github.com/wonny/ineqlab/internal/wstat"

// Labeled 라벨 붙은 곡선 (범례 = Key)
type Labeled = wstat.Keyed[string, wstat.Curve]

// axes 곡선 종류별 축 이름
type axes struct {
	X, Y string
}

func axesOf(kind wstat.CurveKind) axes {
	switch kind {
	case wstat.KindCDF:
		return axes{"value", "cumulative population share"}
	case wstat.KindPareto:
		return axes{"log(value)", "log(1 - cumulative share)"}
	case wstat.KindLorenz:
		return axes{"cumulative population share", "cumulative income share"}
	case wstat.KindGeneralizedLorenz:
		return axes{"cumulative population share", "cumulative income / population"}
	case wstat.KindGrowthIncidence:
		return axes{"tile", "growth rate"}
	}
	return axes{"x", "y"}
}

// hasDiagonal 완전 평등선(y = x)을 함께 그리는 곡선
func hasDiagonal(kind wstat.CurveKind) bool {
	return kind == wstat.KindLorenz
}

// kindOf 여러 곡선의 공통 종류 (첫 곡선 기준)
func kindOf(series []Labeled) wstat.CurveKind {
	if len(series) == 0 {
		return ""
	}
	return series[0].Value.Kind
}
