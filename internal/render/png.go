package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/wonny/ineqlab/internal/wstat"
)

// PNG 출력 크기
const (
	pngWidth  = 10 * vg.Inch
	pngHeight = 6 * vg.Inch
)

// CurvePlot 같은 종류의 곡선들을 한 그림에 (범례 = 라벨)
func CurvePlot(title string, series []Labeled) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no curves to plot", wstat.ErrInvalidInput)
	}
	kind := kindOf(series)
	ax := axesOf(kind)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = ax.X
	p.Y.Label.Text = ax.Y
	p.Add(plotter.NewGrid())

	for i, s := range series {
		if s.Value.Kind != kind {
			return nil, fmt.Errorf("%w: mixed curve kinds %s and %s", wstat.ErrInvalidInput, kind, s.Value.Kind)
		}
		line, err := plotter.NewLine(xys(s.Value))
		if err != nil {
			return nil, fmt.Errorf("curve %s: %w", s.Key, err)
		}
		line.Width = vg.Points(1)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Key, line)

		// GIC 는 분위별 점도 표시
		if kind == wstat.KindGrowthIncidence {
			pts, err := plotter.NewScatter(xys(s.Value))
			if err != nil {
				return nil, fmt.Errorf("curve %s: %w", s.Key, err)
			}
			pts.Color = plotutil.Color(i)
			pts.Radius = vg.Points(2)
			p.Add(pts)
		}
	}

	if hasDiagonal(kind) {
		diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
		if err != nil {
			return nil, err
		}
		diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(diag)
		p.Legend.Add("equality", diag)
	}
	if kind == wstat.KindGrowthIncidence {
		p.Add(plotter.NewFunction(func(float64) float64 { return 0 }))
	}

	p.Legend.Top = true
	p.Legend.Left = kind != wstat.KindPareto
	p.Legend.XOffs = vg.Points(10)
	p.Legend.YOffs = -vg.Points(10)
	if !p.Legend.Left {
		p.Legend.XOffs = -vg.Points(10)
	}
	return p, nil
}

// Histogram 가중 히스토그램 (막대 높이 = 인구 비중, 합 1)
func Histogram(title, xLabel string, s wstat.Sample, bins int) (*plot.Plot, error) {
	h, err := shareHistogram(s, bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = plotutil.Color(0)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "population share"
	p.Add(h)
	return p, nil
}

// shareHistogram 막대 높이를 구간 인구 비중으로 맞춘 히스토그램
// Normalize 는 면적을 맞추므로 쓰지 않고 가중치를 Σw 로 나눈다
func shareHistogram(s wstat.Sample, bins int) (*plotter.Histogram, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if bins <= 0 {
		return nil, fmt.Errorf("%w: bin count %d must be positive", wstat.ErrInvalidInput, bins)
	}
	total := s.TotalWeight()
	if total <= 0 {
		return nil, fmt.Errorf("%w: zero total weight", wstat.ErrDegenerate)
	}

	// X = 값, Y = 인구 비중 (plotter 는 Y 를 구간별로 합산)
	xy := make(plotter.XYs, s.Len())
	for i := range s.Values {
		xy[i] = plotter.XY{X: s.Values[i], Y: s.Weights[i] / total}
	}
	return plotter.NewHistogram(xy, bins)
}

// WritePNG 그림을 PNG 로 기록
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG 그림을 파일로 저장 (형식은 확장자로 결정)
func SavePNG(path string, p *plot.Plot) error {
	return p.Save(pngWidth, pngHeight, path)
}

func xys(c wstat.Curve) plotter.XYs {
	out := make(plotter.XYs, len(c.Points))
	for i, pt := range c.Points {
		out[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return out
}
