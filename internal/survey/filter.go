package survey

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/ineqlab/internal/wstat"
)

// Filter 숫자 열에 대한 행 조건 (예: ipcf > 0, cohh == 1)
type Filter struct {
	Column string  `yaml:"column" json:"column"`
	Op     string  `yaml:"op" json:"op"`
	Value  float64 `yaml:"value" json:"value"`
}

// 긴 연산자부터 검사해야 ">=" 가 ">" 로 잘리지 않음
var filterOps = []string{">=", "<=", "!=", "==", ">", "<", "="}

// ParseFilter "ipcf>0", "cohh==1" 형식 파싱
func ParseFilter(expr string) (Filter, error) {
	for _, op := range filterOps {
		i := strings.Index(expr, op)
		if i <= 0 {
			continue
		}
		col := strings.TrimSpace(expr[:i])
		raw := strings.TrimSpace(expr[i+len(op):])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: filter %q: value %q is not a number", wstat.ErrInvalidInput, expr, raw)
		}
		if op == "=" {
			op = "=="
		}
		f := Filter{Column: col, Op: op, Value: v}
		return f, f.Validate()
	}
	return Filter{}, fmt.Errorf("%w: filter %q has no comparison operator", wstat.ErrInvalidInput, expr)
}

// Validate 열 이름과 연산자 확인
func (f Filter) Validate() error {
	if f.Column == "" {
		return fmt.Errorf("%w: filter column is empty", wstat.ErrInvalidInput)
	}
	switch f.Op {
	case "==", "!=", ">", ">=", "<", "<=":
		return nil
	default:
		return fmt.Errorf("%w: filter operator %q", wstat.ErrInvalidInput, f.Op)
	}
}

// Match 결측(NaN)은 어떤 조건도 만족하지 않음
func (f Filter) Match(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	switch f.Op {
	case "==":
		return v == f.Value
	case "!=":
		return v != f.Value
	case ">":
		return v > f.Value
	case ">=":
		return v >= f.Value
	case "<":
		return v < f.Value
	case "<=":
		return v <= f.Value
	}
	return false
}

func (f Filter) String() string {
	return f.Column + f.Op + strconv.FormatFloat(f.Value, 'g', -1, 64)
}
