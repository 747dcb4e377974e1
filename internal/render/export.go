package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-echarts/go-echarts/v2/charts"

	"github.com/wonny/ineqlab/internal/exercise"
	"github.com/wonny/ineqlab/internal/measures"
	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

// Exporter Report 를 출력 디렉터리에 파일로 기록
// <dir>/<exercise_id>/<run_id>/ 아래에 report.json, 곡선 PNG/HTML/CSV, 표 CSV, index.html
type Exporter struct {
	dir    string
	plots  bool
	logger *logger.Logger
}

// NewExporter creates a new report exporter
// plots=false 이면 PNG 생략 (CSV/HTML 만)
func NewExporter(dir string, plots bool, log *logger.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		plots:  plots,
		logger: log.WithComponent("render"),
	}
}

// Export 기록한 파일 경로 목록 반환
func (e *Exporter) Export(rep *exercise.Report) ([]string, error) {
	out := filepath.Join(e.dir, fileName(rep.ExerciseID), rep.RunID)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var (
		written []string
		lines   []*charts.Line
	)
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(out, name)
		if err := writeFile(path, fn); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	// 1. 원본 결과 (JSON)
	if err := write("report.json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}); err != nil {
		return written, err
	}

	// 2. 결과별 파일
	for _, r := range rep.Results {
		base := fileName(r.ID)

		if series := r.Curves(); len(series) > 0 {
			title := fmt.Sprintf("%s (%s)", r.ID, r.Kind)
			if err := write(base+".csv", func(w io.Writer) error { return WriteCurvesCSV(w, series) }); err != nil {
				return written, err
			}
			if err := write(base+".html", func(w io.Writer) error {
				return WriteChartHTML(w, title, r.Dataset, series)
			}); err != nil {
				return written, err
			}
			if e.plots {
				p, err := CurvePlot(title, series)
				if err != nil {
					return written, err
				}
				if err := write(base+".png", func(w io.Writer) error { return WritePNG(w, p) }); err != nil {
					return written, err
				}
			}

			line, err := CurveChart(title, r.Dataset, series)
			if err != nil {
				return written, err
			}
			lines = append(lines, line)
			continue
		}

		switch r.Kind {
		case exercise.KindDescribe:
			summaries := describeColumns(r)
			if err := write(base+".csv", func(w io.Writer) error { return WriteSummaryCSV(w, summaries) }); err != nil {
				return written, err
			}
		case exercise.KindTileTable:
			for _, t := range tileTables(r) {
				name := base + ".csv"
				if t.Key != "" {
					name = base + "_" + fileName(t.Key) + ".csv"
				}
				if err := write(name, func(w io.Writer) error { return writeTileTable(w, t.Value) }); err != nil {
					return written, err
				}
			}
		}
	}

	// 3. 곡선 모음 페이지
	if len(lines) > 0 {
		title := rep.Title
		if title == "" {
			title = rep.ExerciseID
		}
		if err := write("index.html", func(w io.Writer) error { return WritePageHTML(w, title, lines...) }); err != nil {
			return written, err
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id": rep.RunID,
		"dir":    out,
		"files":  len(written),
	}).Info("report exported")

	return written, nil
}

// describeColumns 전체 또는 파티션별 Summary
func describeColumns(r exercise.Result) []wstat.Keyed[string, wstat.Summary] {
	if r.Groups == nil {
		s, _ := r.Value.(wstat.Summary)
		return []wstat.Keyed[string, wstat.Summary]{{Key: r.Column, Value: s}}
	}
	out := make([]wstat.Keyed[string, wstat.Summary], 0, len(r.Groups))
	for _, g := range r.Groups {
		if s, ok := g.Value.(wstat.Summary); ok {
			out = append(out, wstat.Keyed[string, wstat.Summary]{Key: g.Key, Value: s})
		}
	}
	return out
}

// tileTables 전체(Key "") 또는 파티션별 분위표
func tileTables(r exercise.Result) []wstat.Keyed[string, []measures.TileRow] {
	if r.Groups == nil {
		rows, _ := r.Value.([]measures.TileRow)
		return []wstat.Keyed[string, []measures.TileRow]{{Value: rows}}
	}
	out := make([]wstat.Keyed[string, []measures.TileRow], 0, len(r.Groups))
	for _, g := range r.Groups {
		if rows, ok := g.Value.([]measures.TileRow); ok {
			out = append(out, wstat.Keyed[string, []measures.TileRow]{Key: g.Key, Value: rows})
		}
	}
	return out
}

var tileHeader = []string{
	"tile", "mean", "std", "population", "std_error",
	"count", "unweighted_mean", "unweighted_std", "unweighted_std_error",
}

func writeTileTable(w io.Writer, rows []measures.TileRow) error {
	data := make([][]float64, len(rows))
	for i, r := range rows {
		data[i] = []float64{
			float64(r.Tile), r.Mean, r.StdDev, r.Population, r.StdError,
			float64(r.Count), r.UnweightedMean, r.UnweightedStdDev, r.UnweightedStdError,
		}
	}
	return WriteTableCSV(w, tileHeader, data)
}

func writeFile(path string, fn func(io.Writer) error) error {
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

// fileName 파일 이름에 쓸 수 없는 문자는 '_'
func fileName(s string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, s)
	if name == "" || strings.Trim(name, ".") == "" {
		return "_"
	}
	return name
}
