package survey

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadExcel 첫 번째 시트를 읽음 (첫 행은 헤더)
func LoadExcel(path, name string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return fromRows(name, rows)
}
