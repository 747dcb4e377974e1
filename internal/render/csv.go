package render

import (
	"io"
	"strconv"

	"github.com/gwenn/yacr"

	"github.com/wonny/ineqlab/internal/wstat"
)

// WriteCurvesCSV 곡선 점을 긴 형식(series,kind,x,y)으로 기록
func WriteCurvesCSV(w io.Writer, series []Labeled) error {
	wr := yacr.DefaultWriter(w)
	wr.WriteRecord("series", "kind", "x", "y")
	for _, s := range series {
		for _, p := range s.Value.Points {
			wr.WriteRecord(s.Key, string(s.Value.Kind), p.X, p.Y)
		}
	}
	wr.Flush()
	return wr.Err()
}

// WriteSummaryCSV describe 표 (label, 파티션별 value 열)
func WriteSummaryCSV(w io.Writer, summaries []wstat.Keyed[string, wstat.Summary]) error {
	wr := yacr.DefaultWriter(w)

	wr.WriteString("")
	for _, s := range summaries {
		wr.WriteString(s.Key)
	}
	wr.EndOfRecord()

	if len(summaries) > 0 {
		rows := make([][]wstat.Row, len(summaries))
		for i, s := range summaries {
			rows[i] = s.Value.Rows()
		}
		for r := range rows[0] {
			wr.WriteString(rows[0][r].Label)
			for i := range rows {
				wr.WriteString(rows[i][r].Value)
			}
			wr.EndOfRecord()
		}
	}

	wr.Flush()
	return wr.Err()
}

// WriteTableCSV 헤더 + 숫자 행 (분위표 등)
func WriteTableCSV(w io.Writer, header []string, rows [][]float64) error {
	wr := yacr.DefaultWriter(w)
	for _, h := range header {
		wr.WriteString(h)
	}
	wr.EndOfRecord()

	for _, row := range rows {
		for _, v := range row {
			wr.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		wr.EndOfRecord()
	}
	wr.Flush()
	return wr.Err()
}
