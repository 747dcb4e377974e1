package survey

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/gwenn/yacr"
)

// LoadCSV 쉼표 구분, 따옴표 허용, 첫 행은 헤더
func LoadCSV(r io.Reader, name string) (*Dataset, error) {
	rd := yacr.DefaultReader(r)
	rd.Trim = true

	var rows [][]string
	var record []string
	for rd.Scan() {
		record = append(record, rd.Text())
		if rd.EndOfRecord() {
			if !(len(record) == 1 && record[0] == "") {
				rows = append(rows, record)
			}
			record = nil
		}
	}
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("read csv %s (line %d): %w", name, rd.LineNumber(), err)
	}
	if len(record) > 0 {
		rows = append(rows, record)
	}

	return fromRows(name, rows)
}

// WriteCSV Dataset 전체를 CSV 로 기록 (결측은 빈 칸)
func WriteCSV(w io.Writer, d *Dataset) error {
	wr := yacr.DefaultWriter(w)

	for _, name := range d.Names() {
		wr.WriteString(name)
	}
	wr.EndOfRecord()

	for i := 0; i < d.Rows(); i++ {
		for _, c := range d.columns {
			if !c.Numeric() {
				wr.WriteString(c.Strings[i])
				continue
			}
			v := c.Floats[i]
			if math.IsNaN(v) {
				wr.WriteString("")
				continue
			}
			wr.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		wr.EndOfRecord()
	}

	wr.Flush()
	return wr.Err()
}
