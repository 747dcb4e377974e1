package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/wonny/ineqlab/internal/wstat"
)

// CurveChart 곡선들을 go-echarts 선 그래프로 (x축은 숫자 축)
func CurveChart(title, subtitle string, series []Labeled) (*charts.Line, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no curves to chart", wstat.ErrInvalidInput)
	}
	kind := kindOf(series)
	ax := axesOf(kind)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "960px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: ax.X, NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: ax.Y, NameLocation: "middle", NameGap: 45, Scale: opts.Bool(true)}),
	)

	for _, s := range series {
		if s.Value.Kind != kind {
			return nil, fmt.Errorf("%w: mixed curve kinds %s and %s", wstat.ErrInvalidInput, kind, s.Value.Kind)
		}
		line.AddSeries(s.Key, lineData(s.Value),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(kind == wstat.KindGrowthIncidence)}),
		)
	}

	if hasDiagonal(kind) {
		diag := wstat.Curve{Kind: kind, Points: []wstat.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
		line.AddSeries("equality", lineData(diag),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
		)
	}
	return line, nil
}

// WriteChartHTML 곡선 하나의 HTML 페이지
func WriteChartHTML(w io.Writer, title, subtitle string, series []Labeled) error {
	line, err := CurveChart(title, subtitle, series)
	if err != nil {
		return err
	}
	return line.Render(w)
}

// WritePageHTML 여러 차트를 한 페이지에
func WritePageHTML(w io.Writer, title string, lines ...*charts.Line) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, l := range lines {
		page.AddCharts(l)
	}
	return page.Render(w)
}

func lineData(c wstat.Curve) []opts.LineData {
	data := make([]opts.LineData, len(c.Points))
	for i, p := range c.Points {
		data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
	}
	return data
}
