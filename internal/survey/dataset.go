// Package survey 가구 조사 마이크로데이터를 열 단위로 보관하고
// wstat.Sample 로 변환한다. 모든 변환은 새 Dataset 을 반환한다 (원본 불변).
package survey

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wonny/ineqlab/internal/wstat"
)

// Column 숫자 열 또는 문자 열
// Floats 가 nil 이면 문자 열. 숫자 결측은 NaN.
type Column struct {
	Name    string
	Floats  []float64
	Strings []string
}

// Len 행 수
func (c Column) Len() int {
	if c.Floats != nil {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Numeric 숫자 열 여부
func (c Column) Numeric() bool {
	return c.Floats != nil
}

func (c Column) subset(idx []int) Column {
	out := Column{Name: c.Name}
	if c.Numeric() {
		out.Floats = make([]float64, len(idx))
		for i, j := range idx {
			out.Floats[i] = c.Floats[j]
		}
		return out
	}
	out.Strings = make([]string, len(idx))
	for i, j := range idx {
		out.Strings[i] = c.Strings[j]
	}
	return out
}

// key 그룹 키 문자열
func (c Column) key(i int) string {
	if c.Numeric() {
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	}
	return c.Strings[i]
}

// Missing 숫자 열은 NaN, 문자 열은 빈 문자열
func (c Column) Missing(i int) bool {
	if c.Numeric() {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

// Dataset 이름 있는 열 집합
// ⭐ SSOT: 파일/DB 에서 읽은 관측치는 모두 이 타입을 거쳐 Sample 이 된다
type Dataset struct {
	Name    string
	columns []Column
	index   map[string]int
	rows    int
}

// NewDataset 열 길이가 모두 같은지 확인 후 생성
func NewDataset(name string, cols ...Column) (*Dataset, error) {
	d := &Dataset{
		Name:    name,
		columns: make([]Column, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", wstat.ErrInvalidInput, i)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", wstat.ErrInvalidInput, c.Name)
		}
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", wstat.ErrInvalidInput, c.Name, c.Len(), d.rows)
		}
		d.index[c.Name] = len(d.columns)
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// Rows 행 수
func (d *Dataset) Rows() int {
	return d.rows
}

// Names 열 이름 (적재 순서)
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Has 열 존재 여부
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column 이름으로 열 조회 (없으면 ErrMissingField)
func (d *Dataset) Column(name string) (Column, error) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: column %q not in dataset %q", wstat.ErrMissingField, name, d.Name)
	}
	return d.columns[i], nil
}

// Floats 숫자 열 복사본
func (d *Dataset) Floats(name string) ([]float64, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.Numeric() {
		return nil, fmt.Errorf("%w: column %q is not numeric", wstat.ErrInvalidInput, name)
	}
	return append([]float64(nil), c.Floats...), nil
}

// Keys 행별 그룹 키 (숫자 열은 %g 형식)
func (d *Dataset) Keys(name string) ([]string, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	keys := make([]string, d.rows)
	for i := range keys {
		keys[i] = c.key(i)
	}
	return keys, nil
}

// =============================================================================
// 변환 (copy-on-write)
// =============================================================================

// Filter keep(row) 가 true 인 행만 남긴 새 Dataset
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	idx := make([]int, 0, d.rows)
	for i := 0; i < d.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return d.subset(idx)
}

// Where 모든 조건을 만족하는 행만 남긴 새 Dataset
func (d *Dataset) Where(filters ...Filter) (*Dataset, error) {
	cols := make([][]float64, len(filters))
	for i, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		c, err := d.Column(f.Column)
		if err != nil {
			return nil, err
		}
		if !c.Numeric() {
			return nil, fmt.Errorf("%w: filter column %q is not numeric", wstat.ErrInvalidInput, f.Column)
		}
		cols[i] = c.Floats
	}

	return d.Filter(func(row int) bool {
		for i, f := range filters {
			if !f.Match(cols[i][row]) {
				return false
			}
		}
		return true
	}), nil
}

// WithColumn 열을 추가하거나 같은 이름의 열을 교체한 새 Dataset
func (d *Dataset) WithColumn(c Column) (*Dataset, error) {
	cols := append([]Column(nil), d.columns...)
	if i, ok := d.index[c.Name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return NewDataset(d.Name, cols...)
}

// Scale 숫자 열에 factor 를 곱한 새 Dataset (예: 물가 조정)
func (d *Dataset) Scale(name string, factor float64) (*Dataset, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: scale factor %v", wstat.ErrInvalidInput, factor)
	}
	vals, err := d.Floats(name)
	if err != nil {
		return nil, err
	}
	for i := range vals {
		vals[i] *= factor
	}
	return d.WithColumn(Column{Name: name, Floats: vals})
}

func (d *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{
		Name:    d.Name,
		columns: make([]Column, len(d.columns)),
		index:   d.index,
		rows:    len(idx),
	}
	for i, c := range d.columns {
		out.columns[i] = c.subset(idx)
	}
	return out
}

// =============================================================================
// Sample 변환
// =============================================================================

// Sample value 열과 weight 열로 가중 표본 생성
// weight 가 "" 이면 모든 가중치 1. 값이나 가중치가 결측(NaN)인 행은 제외.
// GroupedSample 은 그룹 키가 결측인 행도 제외.
func (d *Dataset) Sample(value, weight string) (wstat.Sample, error) {
	s, _, err := d.sample(value, weight, "")
	return s, err
}

// GroupedSample Sample 과 같은 행 순서의 그룹 키
func (d *Dataset) GroupedSample(value, weight, group string) (wstat.Sample, []string, error) {
	if group == "" {
		return wstat.Sample{}, nil, fmt.Errorf("%w: group column not specified", wstat.ErrInvalidInput)
	}
	return d.sample(value, weight, group)
}

func (d *Dataset) sample(value, weight, group string) (wstat.Sample, []string, error) {
	vals, err := d.Floats(value)
	if err != nil {
		return wstat.Sample{}, nil, err
	}

	var wts []float64
	if weight != "" {
		if wts, err = d.Floats(weight); err != nil {
			return wstat.Sample{}, nil, err
		}
	}

	var grp Column
	if group != "" {
		if grp, err = d.Column(group); err != nil {
			return wstat.Sample{}, nil, err
		}
	}

	s := wstat.Sample{
		Values:  make([]float64, 0, len(vals)),
		Weights: make([]float64, 0, len(vals)),
	}
	var keys []string
	for i, v := range vals {
		w := 1.0
		if wts != nil {
			w = wts[i]
		}
		if math.IsNaN(v) || math.IsNaN(w) {
			continue
		}
		if group != "" && grp.Missing(i) {
			continue
		}
		s.Values = append(s.Values, v)
		s.Weights = append(s.Weights, w)
		if group != "" {
			keys = append(keys, grp.key(i))
		}
	}

	if err := s.Validate(); err != nil {
		return wstat.Sample{}, nil, fmt.Errorf("dataset %q column %q: %w", d.Name, value, err)
	}
	return s, keys, nil
}
