package survey

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wonny/ineqlab/internal/wstat"
)

// Format 지원하는 파일 형식
type Format string

const (
	FormatStata Format = "dta"
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
)

// Formats 탐색 순서
var Formats = []Format{FormatStata, FormatCSV, FormatExcel}

// FormatOf 확장자로 형식 판별
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if string(f) == ext {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported file type %q", wstat.ErrInvalidInput, ext)
}

// Load 확장자에 맞는 로더로 파일 적재
// Dataset 이름은 확장자를 뺀 파일명
func Load(path string) (*Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch format {
	case FormatExcel:
		return LoadExcel(path, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatStata {
		return LoadStata(f, name)
	}
	return LoadCSV(f, name)
}

// fromRows 헤더 + 문자열 행 → Dataset
// 비어 있지 않은 모든 셀이 숫자인 열은 숫자 열 (빈 셀 = NaN), 나머지는 문자 열
func fromRows(name string, rows [][]string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", wstat.ErrInvalidInput, name)
	}

	header := rows[0]
	body := rows[1:]
	cols := make([]Column, len(header))

	for j, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "col" + strconv.Itoa(j+1)
		}

		cells := make([]string, len(body))
		for i, r := range body {
			if j < len(r) {
				cells[i] = strings.TrimSpace(r[j])
			}
		}

		if floats, ok := parseFloats(cells); ok {
			cols[j] = Column{Name: h, Floats: floats}
		} else {
			cols[j] = Column{Name: h, Strings: cells}
		}
	}

	return NewDataset(name, cols...)
}

// parseFloats 모든 셀이 숫자(또는 빈 칸, ".")이면 변환
func parseFloats(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" || c == "." || strings.EqualFold(c, "nan") {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
