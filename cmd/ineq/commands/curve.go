package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/render"
	"github.com/wonny/ineqlab/internal/wstat"
)

// curveKinds curve 명령이 받는 곡선 종류 (gic 는 별도 명령)
var curveKinds = []string{
	string(wstat.KindCDF),
	string(wstat.KindPareto),
	string(wstat.KindLorenz),
	string(wstat.KindGeneralizedLorenz),
}

func newCurveCmd(root *rootOptions) *cobra.Command {
	var (
		ds     datasetFlags
		opts   wstat.CurveOptions
		origin bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "curve <cdf|pareto|lorenz|glorenz>",
		Short: "분포 곡선",
		Long: `CDF, Pareto, Lorenz, 일반화 Lorenz 곡선을 계산합니다.

--out 확장자로 출력 형식 결정: .png (gonum/plot), .html (echarts), .csv
--out 이 없으면 점 목록을 출력합니다.

Example:
  go run ./cmd/ineq curve lorenz --file eph_2006 --value ipcf --weight pondera --group region --out lorenz.png
  go run ./cmd/ineq curve pareto --file eph_2006 --value ipcf --weight pondera --cutoff 0.99
  go run ./cmd/ineq curve cdf --file eph_2006 --value ipcf --log --log-offset 1 --out cdf.html`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: curveKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := wstat.CurveKind(args[0])
			build, err := curveBuilder(kind, opts, origin)
			if err != nil {
				return err
			}

			cfg, log, err := root.setup()
			if err != nil {
				return err
			}
			d, err := ds.load(cfg.DataDir, log)
			if err != nil {
				return err
			}
			series, err := byGroup(&ds, d, build)
			if err != nil {
				return err
			}

			title := fmt.Sprintf("%s: %s of %s", ds.file, kind, ds.value)
			return emitCurves(cmd.OutOrStdout(), out, title, strings.Join(ds.filters, ", "), series)
		},
	}
	ds.register(cmd)
	cmd.Flags().BoolVar(&opts.Log, "log", false, "log x axis (cdf)")
	cmd.Flags().Float64Var(&opts.LogOffset, "log-offset", 0, "log(x + offset)")
	cmd.Flags().Float64Var(&opts.Cutoff, "cutoff", 0, "upper cumulative population share (cdf, pareto)")
	cmd.Flags().BoolVar(&origin, "origin", false, "prepend (0,0) (lorenz, glorenz)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.png, .html, .csv)")
	return cmd
}

func curveBuilder(kind wstat.CurveKind, opts wstat.CurveOptions, origin bool) (func(wstat.Sample) (wstat.Curve, error), error) {
	withOrigin := func(fn func(wstat.Sample) (wstat.Curve, error)) func(wstat.Sample) (wstat.Curve, error) {
		return func(s wstat.Sample) (wstat.Curve, error) {
			c, err := fn(s)
			if err != nil || !origin {
				return c, err
			}
			return c.WithOrigin(), nil
		}
	}

	switch kind {
	case wstat.KindCDF:
		return func(s wstat.Sample) (wstat.Curve, error) { return wstat.CDF(s, opts) }, nil
	case wstat.KindPareto:
		return func(s wstat.Sample) (wstat.Curve, error) { return wstat.Pareto(s, opts) }, nil
	case wstat.KindLorenz:
		return withOrigin(wstat.Lorenz), nil
	case wstat.KindGeneralizedLorenz:
		return withOrigin(wstat.GeneralizedLorenz), nil
	}
	return nil, fmt.Errorf("%w: unknown curve kind %q (expected one of %s)",
		wstat.ErrInvalidInput, kind, strings.Join(curveKinds, ", "))
}

// emitCurves path 가 비어 있으면 점 목록, 아니면 확장자별 파일
func emitCurves(w io.Writer, path, title, subtitle string, series []render.Labeled) error {
	if path == "" {
		PrintHeader(w, title, [2]string{"Filters", subtitle})
		rows := [][]string{{"series", "x", "y"}}
		for _, s := range series {
			for _, p := range s.Value.Points {
				rows = append(rows, []string{s.Key, ratio(p.X), ratio(p.Y)})
			}
		}
		PrintTable(w, rows)
		return nil
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = savePNG(path, title, series)
	case ".html":
		err = saveFile(path, func(f io.Writer) error { return render.WriteChartHTML(f, title, subtitle, series) })
	case ".csv":
		err = saveFile(path, func(f io.Writer) error { return render.WriteCurvesCSV(f, series) })
	default:
		return fmt.Errorf("%w: unsupported output extension %q", wstat.ErrInvalidInput, ext)
	}
	if err != nil {
		return err
	}
	PrintSuccess(w, "Wrote "+path)
	return nil
}

func savePNG(path, title string, series []render.Labeled) error {
	p, err := render.CurvePlot(title, series)
	if err != nil {
		return err
	}
	return render.SavePNG(path, p)
}

func saveFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
