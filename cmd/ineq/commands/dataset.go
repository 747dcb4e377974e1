package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

// allKey 그룹 미지정 시 결과 키
const allKey = "all"

// datasetFlags --file/--value/--weight/--group/--filter 공통 플래그
type datasetFlags struct {
	file    string
	value   string
	weight  string
	group   string
	scale   float64
	filters []string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "dataset name under DATA_DIR or file path (.dta, .csv, .xlsx)")
	cmd.Flags().StringVar(&f.value, "value", "", "value column (e.g. ipcf)")
	cmd.Flags().StringVar(&f.weight, "weight", "", "weight column (default: unit weights)")
	cmd.Flags().StringVar(&f.group, "group", "", "partition column (e.g. region)")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "multiply the value column (deflation)")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "row filter, repeatable (e.g. 'ipcf>0', 'cohh==1')")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("value")
}

// fields 헤더 출력용
func (f *datasetFlags) fields() [][2]string {
	out := [][2]string{
		{"Dataset", f.file},
		{"Value", f.value},
		{"Weight", f.weight},
		{"Group", f.group},
	}
	for _, expr := range f.filters {
		out = append(out, [2]string{"Filter", expr})
	}
	return out
}

// load 적재 → scale → filter
func (f *datasetFlags) load(dataDir string, log *logger.Logger) (*survey.Dataset, error) {
	return f.loadFile(f.file, f.scale, dataDir, log)
}

func (f *datasetFlags) loadFile(file string, scale float64, dataDir string, log *logger.Logger) (*survey.Dataset, error) {
	filters := make([]survey.Filter, 0, len(f.filters))
	for _, expr := range f.filters {
		flt, err := survey.ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, flt)
	}

	d, err := openDataset(file, dataDir, log)
	if err != nil {
		return nil, err
	}
	if scale != 0 {
		if d, err = d.Scale(f.value, scale); err != nil {
			return nil, err
		}
	}
	if len(filters) > 0 {
		if d, err = d.Where(filters...); err != nil {
			return nil, err
		}
	}

	log.WithFields(map[string]interface{}{
		"dataset": file,
		"rows":    d.Rows(),
	}).Debug("dataset ready")
	return d, nil
}

// openDataset 실제 파일 경로면 직접 적재, 아니면 --data-dir 카탈로그에서 이름으로 탐색
func openDataset(file, dataDir string, log *logger.Logger) (*survey.Dataset, error) {
	if filepath.Ext(file) != "" {
		if _, err := os.Stat(file); err == nil {
			return survey.Load(file)
		}
	}
	return survey.NewCatalog(dataDir, log).Open(file)
}

// byGroup --group 이 있으면 파티션별, 없으면 전체 표본 하나("all")
func byGroup[R any](f *datasetFlags, d *survey.Dataset, fn func(wstat.Sample) (R, error)) ([]wstat.Keyed[string, R], error) {
	if f.group == "" {
		s, err := d.Sample(f.value, f.weight)
		if err != nil {
			return nil, err
		}
		r, err := fn(s)
		if err != nil {
			return nil, err
		}
		return []wstat.Keyed[string, R]{{Key: allKey, Value: r}}, nil
	}

	s, keys, err := d.GroupedSample(f.value, f.weight, f.group)
	if err != nil {
		return nil, err
	}
	out, err := wstat.ByPartition(s, func(i int) string { return keys[i] }, fn)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", f.group, err)
	}
	return out, nil
}
