package wstat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// =============================================================================
// Curve Types
// =============================================================================

// CurveKind 곡선 종류
type CurveKind string

const (
	KindCDF               CurveKind = "cdf"     // x=값, y=누적 인구 비중
	KindPareto            CurveKind = "pareto"  // x=log(값), y=log(1-누적 비중)
	KindLorenz            CurveKind = "lorenz"  // x=누적 인구 비중, y=누적 소득 비중
	KindGeneralizedLorenz CurveKind = "glorenz" // x=누적 인구 비중, y=누적 소득/총 인구
	KindGrowthIncidence   CurveKind = "gic"     // x=분위, y=성장률
)

// Point 곡선 위의 한 점
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Curve 정렬 변수 기준 순서가 있는 점 집합
type Curve struct {
	Kind   CurveKind `json:"kind"`
	Points []Point   `json:"points"`
}

// CurveOptions CDF/Pareto 곡선 옵션
type CurveOptions struct {
	Log       bool    `json:"log" yaml:"log"`               // CDF x축 로그 변환 (Pareto는 항상 로그)
	LogOffset float64 `json:"log_offset" yaml:"log_offset"` // log(x + offset), 예: log(ipcf+1)
	Cutoff    float64 `json:"cutoff" yaml:"cutoff"`         // 누적 인구 비중 상한 (0 = 없음)
}

func (o CurveOptions) validate() error {
	if math.IsNaN(o.Cutoff) || o.Cutoff < 0 || o.Cutoff > 1 {
		return fmt.Errorf("%w: cutoff %v outside [0,1]", ErrInvalidInput, o.Cutoff)
	}
	return nil
}

func (o CurveOptions) logOf(x float64) (float64, error) {
	v := x + o.LogOffset
	if v <= 0 {
		return 0, fmt.Errorf("%w: log of non-positive value %v (offset %v)", ErrInvalidInput, x, o.LogOffset)
	}
	return math.Log(v), nil
}

// WithOrigin (0,0)을 앞에 붙인 새 곡선 (Lorenz 계열용)
func (c Curve) WithOrigin() Curve {
	pts := make([]Point, 0, len(c.Points)+1)
	pts = append(pts, Point{})
	pts = append(pts, c.Points...)
	return Curve{Kind: c.Kind, Points: pts}
}

// Final 마지막 점
func (c Curve) Final() Point {
	if len(c.Points) == 0 {
		return Point{}
	}
	return c.Points[len(c.Points)-1]
}

// XY x, y 좌표를 분리하여 반환 (렌더러용)
func (c Curve) XY() (xs, ys []float64) {
	xs = make([]float64, len(c.Points))
	ys = make([]float64, len(c.Points))
	for i, p := range c.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// =============================================================================
// CDF / Pareto
// =============================================================================

// CDF 누적 분포 곡선
// Cutoff > 0 이면 누적 비중 S_i <= Cutoff 인 점만 유지 (긴 꼬리 제거)
func CDF(s Sample, opts CurveOptions) (Curve, error) {
	if err := opts.validate(); err != nil {
		return Curve{}, err
	}
	o, err := sortSample(s)
	if err != nil {
		return Curve{}, err
	}
	if err := requireSpread(o); err != nil {
		return Curve{}, err
	}

	shares := o.shares()
	pts := make([]Point, 0, len(shares))
	for i, sh := range shares {
		if opts.Cutoff > 0 && sh > opts.Cutoff {
			break
		}
		x := o.x[i]
		if opts.Log {
			if x, err = opts.logOf(x); err != nil {
				return Curve{}, err
			}
		}
		pts = append(pts, Point{X: x, Y: sh})
	}

	if len(pts) == 0 {
		return Curve{}, fmt.Errorf("%w: cutoff %v leaves no observations", ErrDegenerate, opts.Cutoff)
	}
	return Curve{Kind: KindCDF, Points: pts}, nil
}

// Pareto 로그-로그 생존 곡선
// S_i = 1 인 점은 log(0) 이므로 항상 제외, Cutoff > 0 이면 S_i < Cutoff 만 유지 (예: 상위 1% 제외 = 0.99)
func Pareto(s Sample, opts CurveOptions) (Curve, error) {
	if err := opts.validate(); err != nil {
		return Curve{}, err
	}
	o, err := sortSample(s)
	if err != nil {
		return Curve{}, err
	}
	if err := requireSpread(o); err != nil {
		return Curve{}, err
	}

	limit := 1.0
	if opts.Cutoff > 0 {
		limit = opts.Cutoff
	}

	shares := o.shares()
	pts := make([]Point, 0, len(shares))
	for i, sh := range shares {
		if sh >= limit {
			break
		}
		x, err := opts.logOf(o.x[i])
		if err != nil {
			return Curve{}, err
		}
		pts = append(pts, Point{X: x, Y: math.Log(1 - sh)})
	}

	if len(pts) == 0 {
		return Curve{}, fmt.Errorf("%w: no observations below cumulative share %v", ErrDegenerate, limit)
	}
	return Curve{Kind: KindPareto, Points: pts}, nil
}

// requireSpread 모든 값이 같으면 x축 정렬이 불가능
func requireSpread(o ordered) error {
	if o.x[0] == o.x[len(o.x)-1] {
		return fmt.Errorf("%w: all values equal (%v)", ErrDegenerate, o.x[0])
	}
	return nil
}

// =============================================================================
// Lorenz
// =============================================================================

// Lorenz 로렌츠 곡선: (누적 인구 비중, 누적 소득 비중)
// 원점은 포함하지 않음 (WithOrigin 사용). 마지막 점은 정확히 (1, 1).
func Lorenz(s Sample) (Curve, error) {
	o, inc, err := incomeAccumulation(s)
	if err != nil {
		return Curve{}, err
	}

	totalInc := inc[len(inc)-1]
	if totalInc == 0 {
		return Curve{}, fmt.Errorf("%w: total income is zero", ErrDegenerate)
	}

	pts := make([]Point, len(inc))
	for i := range inc {
		pts[i] = Point{X: o.cum[i] / o.total, Y: inc[i] / totalInc}
	}
	return Curve{Kind: KindLorenz, Points: pts}, nil
}

// GeneralizedLorenz 일반화 로렌츠 곡선: y = 누적 소득 / 총 인구
// 마지막 점의 y 는 가중 평균 (통화 단위)
func GeneralizedLorenz(s Sample) (Curve, error) {
	o, inc, err := incomeAccumulation(s)
	if err != nil {
		return Curve{}, err
	}

	pts := make([]Point, len(inc))
	for i := range inc {
		pts[i] = Point{X: o.cum[i] / o.total, Y: inc[i] / o.total}
	}
	return Curve{Kind: KindGeneralizedLorenz, Points: pts}, nil
}

// incomeAccumulation 값 오름차순 Σ_{j<=i} w_j·x_j
func incomeAccumulation(s Sample) (ordered, []float64, error) {
	o, err := sortSample(s)
	if err != nil {
		return ordered{}, nil, err
	}

	wx := make([]float64, len(o.x))
	for i := range o.x {
		wx[i] = o.w[i] * o.x[i]
	}
	return o, floats.CumSum(make([]float64, len(wx)), wx), nil
}
