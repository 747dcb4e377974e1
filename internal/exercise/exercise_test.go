package exercise

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ineqlab/internal/measures"
	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

const tinyCSV = `region,x,w,a,b
north,10,1,6,4
north,20,1,15,5
south,30,2,30,0
`

// homesCSV 개인 행, id 결측 행 하나
const homesCSV = `id,x,w
1,10,2
1,30,2
2,40,1
,50,1
3,20,3
3,5,3
3,15,3
`

func newTestRunner(t *testing.T, tables TableSource) *Runner {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.csv"), []byte(tinyCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.csv"), []byte("x\n5\n5\n5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "homes.csv"), []byte(homesCSV), 0o644))
	return NewRunner(survey.NewCatalog(dir, logger.Nop()), tables, logger.Nop())
}

func tinyConfig(analyses ...Analysis) *Config {
	return &Config{
		Meta: Meta{ExerciseID: "tiny"},
		Datasets: []Dataset{
			{Name: "tiny", Path: "tiny", Value: "x", Weight: "w", Group: "region"},
		},
		Analyses: analyses,
	}
}

// =============================================================================
// Loader / Validate
// =============================================================================

func TestLoad(t *testing.T) {
	path := "../../config/exercises/income_distribution.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("exercise file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "income_distribution", cfg.Meta.ExerciseID)
	assert.NotEmpty(t, yamlData)

	d, ok := cfg.DatasetByName("eph1992")
	require.True(t, ok)
	assert.InDelta(t, 2.0994, d.Scale, 1e-12)
	require.Len(t, d.Filters, 1)
	assert.Equal(t, "cohh", d.Filters[0].Column)

	persons, ok := cfg.DatasetByName("eph2006_persons")
	require.True(t, ok)
	assert.Equal(t, "id", persons.Household)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2, "hash not deterministic")
}

func TestParse_UnknownField(t *testing.T) {
	data := []byte(`
meta:
  exercise_id: x
datasets:
  - name: a
    path: a
    value: ipcf
    wieght: pondera
analyses:
  - id: s
    kind: describe
    dataset: a
`)
	_, err := Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wieght")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "meta.exercise_id", ve.Field)
}

func TestHash_ChangesWithConfig(t *testing.T) {
	a := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"})
	b := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny", Tiles: 5})

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing id", func(c *Config) { c.Meta.ExerciseID = "" }, "meta.exercise_id"},
		{"path and table", func(c *Config) { c.Datasets[0].Table = "ineq.eph" }, "datasets[0]"},
		{"missing value", func(c *Config) { c.Datasets[0].Value = "" }, "datasets[0].value"},
		{"negative scale", func(c *Config) { c.Datasets[0].Scale = -1 }, "datasets[0].scale"},
		{"bad filter", func(c *Config) {
			c.Datasets[0].Filters = []survey.Filter{{Column: "x", Op: "~", Value: 1}}
		}, "datasets[0].filters[0]"},
		{"duplicate dataset", func(c *Config) { c.Datasets = append(c.Datasets, c.Datasets[0]) }, "datasets[1].name"},
		{"unknown kind", func(c *Config) { c.Analyses[0].Kind = "gini" }, "analyses[0].kind"},
		{"unknown dataset", func(c *Config) { c.Analyses[0].Dataset = "nope" }, "analyses[0].dataset"},
		{"duplicate analysis", func(c *Config) { c.Analyses = append(c.Analyses, c.Analyses[0]) }, "analyses[1].id"},
		{"later dataset outside gic", func(c *Config) { c.Analyses[0].LaterDataset = "tiny" }, "analyses[0].later_dataset"},
		{"gic without later dataset", func(c *Config) { c.Analyses[0].Kind = KindGIC }, "analyses[0].later_dataset"},
		{"groups without group column", func(c *Config) {
			c.Datasets[0].Group = ""
			c.Analyses[0].Groups = true
		}, "analyses[0].groups"},
		{"groups on shares", func(c *Config) {
			c.Analyses[0].Kind = KindShares
			c.Analyses[0].Components = []string{"a"}
			c.Analyses[0].Groups = true
		}, "analyses[0].groups"},
		{"negative tiles", func(c *Config) { c.Analyses[0].Tiles = -1 }, "analyses[0].tiles"},
		{"max tile above tiles", func(c *Config) {
			c.Analyses[0].Tiles = 5
			c.Analyses[0].MaxTile = 6
		}, "analyses[0].max_tile"},
		{"cutoff above one", func(c *Config) { c.Analyses[0].Cutoff = 1.5 }, "analyses[0].cutoff"},
		{"percentiles without probabilities", func(c *Config) { c.Analyses[0].Kind = KindPercentiles }, "analyses[0].probabilities"},
		{"probability out of range", func(c *Config) {
			c.Analyses[0].Kind = KindPercentiles
			c.Analyses[0].Probabilities = []float64{0.5, 2}
		}, "analyses[0].probabilities[1]"},
		{"poverty without line", func(c *Config) { c.Analyses[0].Kind = KindPoverty }, "analyses[0].poverty_line"},
		{"shares without components", func(c *Config) { c.Analyses[0].Kind = KindShares }, "analyses[0].components"},
		{"combine unknown part", func(c *Config) {
			c.Analyses[0].Kind = KindShares
			c.Analyses[0].Components = []string{"a", "b"}
			c.Analyses[0].Combine = []Combination{{Name: "ab", Parts: []string{"a", "c"}}}
		}, "analyses[0].combine[0].parts"},
		{"combine without name", func(c *Config) {
			c.Analyses[0].Kind = KindShares
			c.Analyses[0].Components = []string{"a"}
			c.Analyses[0].Combine = []Combination{{Parts: []string{"a"}}}
		}, "analyses[0].combine[0].name"},
		{"household size without household column", func(c *Config) { c.Analyses[0].Kind = KindHouseholdSize }, "analyses[0].dataset"},
		{"transfer sim without rates", func(c *Config) {
			c.Datasets[0].Household = "id"
			c.Analyses[0].Kind = KindTransferSim
		}, "analyses[0].rates"},
		{"transfer rate above one", func(c *Config) {
			c.Datasets[0].Household = "id"
			c.Analyses[0].Kind = KindTransferSim
			c.Analyses[0].Rates = []float64{0.1, 2}
		}, "analyses[0].rates[1]"},
		{"household size by group", func(c *Config) {
			c.Datasets[0].Household = "id"
			c.Analyses[0].Kind = KindHouseholdSize
			c.Analyses[0].Groups = true
		}, "analyses[0].groups"},
		{"combine outside shares", func(c *Config) {
			c.Analyses[0].Combine = []Combination{{Name: "ab", Parts: []string{"a"}}}
		}, "analyses[0].combine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"})
			tt.edit(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := tinyConfig(Analysis{ID: "g", Kind: KindGIC, Dataset: "tiny", LaterDataset: "tiny"})
	cfg.Datasets[0].Weight = ""

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"UNWEIGHTED", "GIC_TOP_TILE"}, codes)

	cfg.Analyses[0].MaxTile = 99
	cfg.Datasets[0].Weight = "w"
	assert.Empty(t, Warn(cfg))
}

// =============================================================================
// Runner
// =============================================================================

func TestRunner_Describe(t *testing.T) {
	r := newTestRunner(t, nil)
	cfg := tinyConfig(
		Analysis{ID: "all", Kind: KindDescribe, Dataset: "tiny"},
		Analysis{ID: "by_region", Kind: KindDescribe, Dataset: "tiny", Groups: true},
	)

	rep, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	assert.Len(t, rep.ConfigHash, 64)
	require.Len(t, rep.Results, 2)

	all, ok := rep.Results[0].Value.(wstat.Summary)
	require.True(t, ok)
	assert.InDelta(t, 22.5, all.Mean, 1e-12)
	assert.InDelta(t, 4, all.WeightedCount, 1e-12)

	byRegion := rep.Results[1]
	assert.Equal(t, "region", byRegion.GroupBy)
	require.Len(t, byRegion.Groups, 2)
	assert.Equal(t, "north", byRegion.Groups[0].Key)
	assert.InDelta(t, 15, byRegion.Groups[0].Value.(wstat.Summary).Mean, 1e-12)
	assert.InDelta(t, 30, byRegion.Groups[1].Value.(wstat.Summary).Mean, 1e-12)

	recs := rep.SummaryRecords()
	require.Len(t, recs, 3)
	assert.Equal(t, "", recs[0].Group)
	assert.Equal(t, "north", recs[1].Group)
	assert.Equal(t, rep.RunID, recs[2].RunID)
	assert.Equal(t, "x", recs[2].Value)
	assert.Equal(t, "w", recs[2].Weight)
}

func TestRunner_ScaleAndFilters(t *testing.T) {
	r := newTestRunner(t, nil)

	cfg := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"})
	cfg.Datasets[0].Scale = 2
	rep, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 45, rep.Results[0].Value.(wstat.Summary).Mean, 1e-12)

	cfg = tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"})
	cfg.Datasets[0].Filters = []survey.Filter{{Column: "x", Op: ">", Value: 10}}
	rep, err = r.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 80.0/3, rep.Results[0].Value.(wstat.Summary).Mean, 1e-12)
}

func TestRunner_Kinds(t *testing.T) {
	r := newTestRunner(t, nil)
	cfg := tinyConfig(
		Analysis{ID: "pct", Kind: KindPercentiles, Dataset: "tiny", Probabilities: []float64{0, 1}},
		Analysis{ID: "halves", Kind: KindNTile, Dataset: "tiny", Tiles: 2},
		Analysis{ID: "sources", Kind: KindShares, Dataset: "tiny", Components: []string{"a", "b"},
			Combine: []Combination{{Name: "total", Parts: []string{"a", "b"}}}},
		Analysis{ID: "lorenz", Kind: KindLorenz, Dataset: "tiny", Origin: true},
		Analysis{ID: "poor", Kind: KindPoverty, Dataset: "tiny", PovertyLine: 25},
		Analysis{ID: "table", Kind: KindTileTable, Dataset: "tiny", Tiles: 2, Measure: "a"},
	)

	rep, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, rep.Results, 6)

	pct := rep.Results[0].Value.([]Quantile)
	assert.Equal(t, []Quantile{{P: 0, Value: 10}, {P: 1, Value: 30}}, pct)

	halves := rep.Results[1].Value.([]Bucket)
	require.Len(t, halves, 2)
	assert.Equal(t, Bucket{Tile: 1, Count: 2, Population: 2, Share: 0.5, Min: 10, Max: 20}, halves[0])
	assert.Equal(t, 1, halves[1].Count)

	shares := rep.Results[2].Value.([]measures.Share)
	require.Len(t, shares, 3)
	assert.InDelta(t, 0.9, shares[0].Share, 1e-12)
	assert.InDelta(t, 0.1, shares[1].Share, 1e-12)
	assert.Equal(t, "total", shares[2].Source)
	assert.InDelta(t, 1, shares[2].Share, 1e-12)
	assert.InDelta(t, shares[0].Total+shares[1].Total, shares[2].Total, 1e-9)

	series := rep.Results[3].Curves()
	require.Len(t, series, 1)
	assert.Equal(t, wstat.Point{}, series[0].Value.Points[0])
	assert.Equal(t, wstat.Point{X: 1, Y: 1}, series[0].Value.Final())

	poor := rep.Results[4].Value.(measures.Poverty)
	assert.InDelta(t, 0.5, poor.Rate, 1e-12)

	table := rep.Results[5].Value.([]measures.TileRow)
	require.Len(t, table, 2)
	assert.InDelta(t, 10.5, table[0].Mean, 1e-12)
	assert.InDelta(t, 30, table[1].Mean, 1e-12)

	assert.Nil(t, rep.Results[0].Curves())
}

func TestRunner_Households(t *testing.T) {
	r := newTestRunner(t, nil)
	cfg := &Config{
		Meta:     Meta{ExerciseID: "homes"},
		Datasets: []Dataset{{Name: "homes", Path: "homes", Value: "x", Weight: "w", Household: "id"}},
		Analyses: []Analysis{
			{ID: "sizes", Kind: KindHouseholdSize, Dataset: "homes"},
			{ID: "capped", Kind: KindHouseholdSize, Dataset: "homes", TopCode: 2},
			{ID: "tax", Kind: KindTransferSim, Dataset: "homes", Rates: []float64{0, 1}, Tiles: 2},
		},
	}
	require.NoError(t, Validate(cfg))

	rep, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, rep.Results, 3)

	// 가구 1: 2인(w=2), 가구 2: 1인(w=1), 가구 3: 3인(w=3)
	sizes := rep.Results[0].Value.([]measures.SizeShare)
	require.Len(t, sizes, measures.DefaultTopCode)
	assert.Equal(t, "id", rep.Results[0].Column)
	assert.InDelta(t, 1.0/6, sizes[0].Share, 1e-12)
	assert.InDelta(t, 2.0/6, sizes[1].Share, 1e-12)
	assert.InDelta(t, 3.0/6, sizes[2].Share, 1e-12)

	capped := rep.Results[1].Value.([]measures.SizeShare)
	require.Len(t, capped, 2)
	assert.True(t, capped[1].TopCoded)
	assert.InDelta(t, 5.0/6, capped[1].Share, 1e-12)

	// 세율 0: 원 소득 Q2/Q1, 세율 1: 가구주 소득이 모두 40 → 1
	tax := rep.Results[2].Value.([]measures.TransferRatio)
	require.Len(t, tax, 2)
	assert.InDelta(t, 205.0/63, tax[0].Ratio, 1e-12)
	assert.InDelta(t, 1, tax[1].Ratio, 1e-12)
}

func TestRunner_GrowthIncidence(t *testing.T) {
	r := newTestRunner(t, nil)
	cfg := tinyConfig(Analysis{ID: "gic", Kind: KindGIC, Dataset: "tiny", LaterDataset: "later", Tiles: 2})
	cfg.Datasets = append(cfg.Datasets, Dataset{Name: "later", Path: "tiny", Value: "x", Weight: "w", Scale: 2})

	rep, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)

	points := rep.Results[0].Value.([]wstat.GrowthPoint)
	require.Len(t, points, 2)
	for _, p := range points {
		assert.InDelta(t, 1, p.Rate, 1e-12, "tile %d", p.Tile)
	}

	series := rep.Results[0].Curves()
	require.Len(t, series, 1)
	assert.Equal(t, wstat.KindGrowthIncidence, series[0].Value.Kind)

	cfg.Analyses[0].MaxTile = 1
	rep, err = r.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, rep.Results[0].Value.([]wstat.GrowthPoint), 1)
}

func TestRunner_Errors(t *testing.T) {
	r := newTestRunner(t, nil)

	t.Run("degenerate curve", func(t *testing.T) {
		cfg := &Config{
			Meta:     Meta{ExerciseID: "flat"},
			Datasets: []Dataset{{Name: "flat", Path: "flat", Value: "x"}},
			Analyses: []Analysis{{ID: "cdf", Kind: KindCDF, Dataset: "flat"}},
		}
		_, err := r.Run(context.Background(), cfg)
		assert.True(t, errors.Is(err, wstat.ErrDegenerate), "err = %v", err)
	})

	t.Run("missing column", func(t *testing.T) {
		cfg := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny", Value: "ipcf"})
		_, err := r.Run(context.Background(), cfg)
		assert.True(t, errors.Is(err, wstat.ErrMissingField), "err = %v", err)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"})
		cfg.Datasets[0].Path = "nowhere"
		_, err := r.Run(context.Background(), cfg)
		assert.True(t, errors.Is(err, wstat.ErrMissingField), "err = %v", err)
	})

	t.Run("table without database", func(t *testing.T) {
		cfg := tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"})
		cfg.Datasets[0].Path = ""
		cfg.Datasets[0].Table = "ineq.eph"
		_, err := r.Run(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrNoTableSource)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Run(ctx, tinyConfig(Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"}))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type fakeTables struct {
	table   string
	columns []string
}

func (f *fakeTables) LoadTable(_ context.Context, table string, columns []string) (*survey.Dataset, error) {
	f.table, f.columns = table, columns
	return survey.NewDataset(table,
		survey.Column{Name: "x", Floats: []float64{10, 20, 30}},
		survey.Column{Name: "w", Floats: []float64{1, 1, 2}},
		survey.Column{Name: "region", Strings: []string{"north", "north", "south"}},
		survey.Column{Name: "a", Floats: []float64{6, 15, 30}},
	)
}

func TestRunner_TableSource(t *testing.T) {
	tables := &fakeTables{}
	r := newTestRunner(t, tables)

	cfg := tinyConfig(
		Analysis{ID: "s", Kind: KindDescribe, Dataset: "tiny"},
		Analysis{ID: "t", Kind: KindTileTable, Dataset: "tiny", Measure: "a", Tiles: 2},
	)
	cfg.Datasets[0].Path = ""
	cfg.Datasets[0].Table = "ineq.eph"

	rep, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ineq.eph", tables.table)
	assert.Equal(t, []string{"x", "w", "region", "a"}, tables.columns)
	assert.InDelta(t, 22.5, rep.Results[0].Value.(wstat.Summary).Mean, 1e-12)
}
