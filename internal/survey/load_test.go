package survey

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

const sampleCSV = `id,region,ipcf,pondera
1,"Norte",120.5,100
2,Sur,,80
3,"Sur, interior",300,120
`

func TestLoadCSV(t *testing.T) {
	d, err := LoadCSV(strings.NewReader(sampleCSV), "bra07")
	require.NoError(t, err)

	assert.Equal(t, "bra07", d.Name)
	assert.Equal(t, 3, d.Rows())
	assert.Equal(t, []string{"id", "region", "ipcf", "pondera"}, d.Names())

	ipcf, err := d.Floats("ipcf")
	require.NoError(t, err)
	assert.Equal(t, 120.5, ipcf[0])
	assert.True(t, math.IsNaN(ipcf[1]), "empty cell is missing")

	region, err := d.Keys("region")
	require.NoError(t, err)
	assert.Equal(t, []string{"Norte", "Sur", "Sur, interior"}, region)

	s, err := d.Sample("ipcf", "pondera")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	d, err := LoadCSV(strings.NewReader(sampleCSV), "bra07")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d))

	again, err := LoadCSV(&buf, "bra07")
	require.NoError(t, err)
	assert.Equal(t, d.Names(), again.Names())

	a, _ := d.Keys("region")
	b, _ := again.Keys("region")
	assert.Equal(t, a, b)
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mex06.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"ipcf", "pondera", "region"},
		{100, 2, "Norte"},
		{200, 3, "Sur"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mex06", d.Name)
	assert.Equal(t, 2, d.Rows())

	s, err := d.Sample("ipcf", "pondera")
	require.NoError(t, err)
	mean, err := wstat.Mean(s)
	require.NoError(t, err)
	assert.InDelta(t, 160.0, mean, 1e-9)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a/b/bra07.dta": FormatStata,
		"x.CSV":         FormatCSV,
		"y.xlsx":        FormatExcel,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatOf("data.parquet")
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.dta"))
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bra07.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	c := NewCatalog(dir, logger.Nop())

	names, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bra07"}, names)

	d, err := c.Open("bra07")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Rows())

	// 두 번째 호출은 캐시
	again, err := c.Open("bra07")
	require.NoError(t, err)
	assert.Same(t, d, again)

	_, err = c.Open("mex06")
	assert.ErrorIs(t, err, wstat.ErrMissingField)

	_, err = c.Open("../etc/passwd")
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)
}

func TestCatalog_StaysInDataDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bra07.csv"), []byte(sampleCSV), 0o644))

	outside := t.TempDir()
	outsideFile := filepath.Join(outside, "leak.csv")
	require.NoError(t, os.WriteFile(outsideFile, []byte(sampleCSV), 0o644))

	c := NewCatalog(dir, logger.Nop())

	d, err := c.Open("bra07.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Rows())

	// 작업 디렉토리 기준 상대 경로는 보지 않음
	t.Chdir(outside)
	_, err = c.Open("leak.csv")
	assert.ErrorIs(t, err, wstat.ErrMissingField)

	_, err = c.Open(outsideFile)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)

	rel, err := filepath.Rel(dir, outsideFile)
	require.NoError(t, err)
	_, err = c.Open(rel)
	assert.ErrorIs(t, err, wstat.ErrInvalidInput)
}
