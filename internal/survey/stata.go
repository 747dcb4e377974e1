package survey

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kshedden/datareader"
)

// LoadStata Stata .dta (115~117) 파일 적재
// 숫자형은 float64 로 변환하고 결측 표시는 NaN 으로 바꾼다
func LoadStata(r io.ReadSeeker, name string) (*Dataset, error) {
	rdr, err := datareader.NewStataReader(r)
	if err != nil {
		return nil, fmt.Errorf("open stata %s: %w", name, err)
	}
	// 범주형 변수는 라벨(예: 지역명)로
	rdr.InsertCategoryLabels = true

	series, err := rdr.Read(-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read stata %s: %w", name, err)
	}

	cols := make([]Column, 0, len(series))
	for _, s := range series {
		c, err := stataColumn(s)
		if err != nil {
			return nil, fmt.Errorf("stata %s: %w", name, err)
		}
		cols = append(cols, c)
	}

	return NewDataset(name, cols...)
}

func stataColumn(s *datareader.Series) (Column, error) {
	missing := s.Missing()
	isMissing := func(i int) bool {
		return missing != nil && missing[i]
	}

	switch data := s.Data().(type) {
	case []float64:
		return Column{Name: s.Name, Floats: floatsOf(data, isMissing)}, nil
	case []float32:
		return Column{Name: s.Name, Floats: floatsOf(data, isMissing)}, nil
	case []int64:
		return Column{Name: s.Name, Floats: floatsOf(data, isMissing)}, nil
	case []int32:
		return Column{Name: s.Name, Floats: floatsOf(data, isMissing)}, nil
	case []int16:
		return Column{Name: s.Name, Floats: floatsOf(data, isMissing)}, nil
	case []int8:
		return Column{Name: s.Name, Floats: floatsOf(data, isMissing)}, nil
	case []string:
		return Column{Name: s.Name, Strings: append([]string(nil), data...)}, nil
	default:
		return Column{}, fmt.Errorf("column %q: unsupported type %T", s.Name, data)
	}
}

type number interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~int16 | ~int8
}

func floatsOf[T number](data []T, isMissing func(int) bool) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if isMissing(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(v)
	}
	return out
}
