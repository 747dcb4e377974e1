package exercise

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/ineqlab/internal/measures"
	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

// ErrNoTableSource table 데이터셋을 쓰는데 DB 가 연결되지 않음
var ErrNoTableSource = errors.New("table dataset requires a database connection")

// FileSource 파일 데이터셋 적재 (survey.Catalog)
type FileSource interface {
	Open(name string) (*survey.Dataset, error)
}

// TableSource Postgres 테이블 적재 (survey.Repository)
type TableSource interface {
	LoadTable(ctx context.Context, table string, columns []string) (*survey.Dataset, error)
}

// Runner 실습 정의를 실행하여 Report 생성
type Runner struct {
	files  FileSource
	tables TableSource // nil 이면 table 데이터셋 불가
	logger *logger.Logger
}

// NewRunner creates a new exercise runner
func NewRunner(files FileSource, tables TableSource, log *logger.Logger) *Runner {
	return &Runner{
		files:  files,
		tables: tables,
		logger: log.WithComponent("exercise"),
	}
}

// Run 모든 분석을 정의 순서대로 실행
// 분석 하나라도 실패하면 전체 실패 (부분 결과 없음)
func (r *Runner) Run(ctx context.Context, cfg *Config) (*Report, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:      uuid.NewString(),
		ExerciseID: cfg.Meta.ExerciseID,
		Title:      cfg.Meta.Title,
		ConfigHash: hash,
		StartedAt:  time.Now(),
		Warnings:   Warn(cfg),
		Results:    make([]Result, 0, len(cfg.Analyses)),
	}

	log := r.logger.WithFields(map[string]interface{}{
		"exercise_id": cfg.Meta.ExerciseID,
		"run_id":      report.RunID,
	})
	log.Info("exercise started")
	for _, w := range report.Warnings {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	// 1. 데이터셋 적재 (scale, filter 적용)
	datasets := make(map[string]*survey.Dataset, len(cfg.Datasets))
	for _, def := range cfg.Datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := r.prepare(ctx, cfg, def)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", def.Name, err)
		}
		datasets[def.Name] = d
		log.WithFields(map[string]interface{}{
			"dataset": def.Name,
			"rows":    d.Rows(),
		}).Debug("dataset prepared")
	}

	// 2. 분석 실행
	for _, a := range cfg.Analyses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.analyze(cfg, a, datasets)
		if err != nil {
			log.WithError(err).WithField("analysis", a.ID).Error("analysis failed")
			return nil, fmt.Errorf("analysis %s: %w", a.ID, err)
		}
		report.Results = append(report.Results, res)
	}

	report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	log.WithFields(map[string]interface{}{
		"analyses":    len(report.Results),
		"duration_ms": report.DurationMs,
	}).Info("exercise completed")

	return report, nil
}

// prepare 데이터셋 적재 → scale → filters
func (r *Runner) prepare(ctx context.Context, cfg *Config, def Dataset) (*survey.Dataset, error) {
	var (
		d   *survey.Dataset
		err error
	)
	if def.Table != "" {
		if r.tables == nil {
			return nil, ErrNoTableSource
		}
		d, err = r.tables.LoadTable(ctx, def.Table, requiredColumns(cfg, def))
	} else {
		d, err = r.files.Open(def.Path)
	}
	if err != nil {
		return nil, err
	}

	if def.Scale != 0 && def.Scale != 1 {
		if d, err = d.Scale(def.Value, def.Scale); err != nil {
			return nil, err
		}
	}
	if len(def.Filters) > 0 {
		if d, err = d.Where(def.Filters...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// requiredColumns 데이터셋을 참조하는 모든 열 (DB 조회용, 정의 순서 유지)
func requiredColumns(cfg *Config, def Dataset) []string {
	var cols []string
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !slices.Contains(cols, n) {
				cols = append(cols, n)
			}
		}
	}

	add(def.Value, def.Weight, def.Group, def.Household)
	for _, f := range def.Filters {
		add(f.Column)
	}
	for _, a := range cfg.Analyses {
		if a.Dataset == def.Name || a.LaterDataset == def.Name {
			add(a.Value, a.Measure)
			add(a.Components...)
		}
	}
	return cols
}

// =============================================================================
// 분석 디스패치
// =============================================================================

func (r *Runner) analyze(cfg *Config, a Analysis, datasets map[string]*survey.Dataset) (Result, error) {
	def, _ := cfg.DatasetByName(a.Dataset)
	d := datasets[a.Dataset]
	value := a.valueOf(def)

	res := Result{
		ID:      a.ID,
		Kind:    a.Kind,
		Dataset: a.Dataset,
		Column:  value,
		Weight:  def.Weight,
	}

	switch a.Kind {
	case KindGIC:
		laterDef, _ := cfg.DatasetByName(a.LaterDataset)
		v, err := growthIncidence(a, d, datasets[a.LaterDataset], value, def.Weight, a.valueOf(laterDef), laterDef.Weight)
		if err != nil {
			return Result{}, err
		}
		res.Value = v
		return res, nil

	case KindShares:
		v, err := sourceShares(d, def.Weight, a.Components)
		if err != nil {
			return Result{}, err
		}
		for _, c := range a.Combine {
			sum, err := measures.Combine(v, c.Name, c.Parts...)
			if err != nil {
				return Result{}, err
			}
			v = append(v, sum)
		}
		res.Value = v
		return res, nil

	case KindHouseholdSize:
		v, err := householdSizes(d, def.Household, def.Weight, a.topCode())
		if err != nil {
			return Result{}, err
		}
		res.Column = def.Household
		res.Value = v
		return res, nil

	case KindTransferSim:
		v, err := transferSim(d, def.Household, value, def.Weight, a.Rates, a.tiles())
		if err != nil {
			return Result{}, err
		}
		res.Value = v
		return res, nil

	case KindTileTable:
		if a.Measure != "" {
			v, err := tileTableBy(d, value, def.Weight, a.Measure, a.tiles())
			if err != nil {
				return Result{}, err
			}
			res.Value = v
			return res, nil
		}
	}

	stat, err := sampleStat(a)
	if err != nil {
		return Result{}, err
	}

	if !a.Groups {
		s, err := d.Sample(value, def.Weight)
		if err != nil {
			return Result{}, err
		}
		if res.Value, err = stat(s); err != nil {
			return Result{}, err
		}
		return res, nil
	}

	// 파티션별 (지역, 국가 등)
	s, keys, err := d.GroupedSample(value, def.Weight, def.Group)
	if err != nil {
		return Result{}, err
	}
	groups, err := wstat.ByPartition(s, func(i int) string { return keys[i] }, stat)
	if err != nil {
		return Result{}, err
	}
	res.GroupBy = def.Group
	res.Groups = groups
	return res, nil
}

// sampleStat 표본 하나만 필요한 분석 → 계산 함수
// ⭐ SSOT: 전체 표본과 파티션별 실행이 같은 함수를 사용
func sampleStat(a Analysis) (func(wstat.Sample) (any, error), error) {
	opts := wstat.CurveOptions{Log: a.Log, LogOffset: a.LogOffset, Cutoff: a.Cutoff}

	switch a.Kind {
	case KindDescribe:
		return wrap(wstat.Describe), nil
	case KindPercentiles:
		return func(s wstat.Sample) (any, error) {
			return percentiles(s, a.Probabilities)
		}, nil
	case KindNTile:
		return func(s wstat.Sample) (any, error) {
			return buckets(s, a.tiles())
		}, nil
	case KindTileTable:
		return func(s wstat.Sample) (any, error) {
			return measures.TileTable(s, a.tiles())
		}, nil
	case KindPoverty:
		return func(s wstat.Sample) (any, error) {
			return measures.Headcount(s, a.PovertyLine)
		}, nil
	case KindQuantileRatio:
		return func(s wstat.Sample) (any, error) {
			return measures.TileRatio(s, a.tiles())
		}, nil
	case KindBoxPlot:
		return wrap(measures.Box), nil
	case KindCDF:
		return func(s wstat.Sample) (any, error) {
			return wstat.CDF(s, opts)
		}, nil
	case KindPareto:
		return func(s wstat.Sample) (any, error) {
			return wstat.Pareto(s, opts)
		}, nil
	case KindLorenz:
		return lorenz(wstat.Lorenz, a.Origin), nil
	case KindGLorenz:
		return lorenz(wstat.GeneralizedLorenz, a.Origin), nil
	}
	return nil, fmt.Errorf("%w: kind %q needs more than one column", wstat.ErrInvalidInput, a.Kind)
}

func wrap[R any](fn func(wstat.Sample) (R, error)) func(wstat.Sample) (any, error) {
	return func(s wstat.Sample) (any, error) {
		return fn(s)
	}
}

func lorenz(fn func(wstat.Sample) (wstat.Curve, error), origin bool) func(wstat.Sample) (any, error) {
	return func(s wstat.Sample) (any, error) {
		c, err := fn(s)
		if err != nil {
			return nil, err
		}
		if origin {
			c = c.WithOrigin()
		}
		return c, nil
	}
}

func percentiles(s wstat.Sample, ps []float64) ([]Quantile, error) {
	vals, err := wstat.Percentiles(s, ps...)
	if err != nil {
		return nil, err
	}
	out := make([]Quantile, len(ps))
	for i, p := range ps {
		out[i] = Quantile{P: p, Value: vals[i]}
	}
	return out, nil
}

// buckets N분위 배정 요약 (빈 분위 제외)
func buckets(s wstat.Sample, n int) ([]Bucket, error) {
	tiles, err := wstat.AssignTiles(s, n)
	if err != nil {
		return nil, err
	}
	total := s.TotalWeight()

	groups := tiles.Groups()
	out := make([]Bucket, len(groups))
	for i, g := range groups {
		pop := g.Sample.TotalWeight()
		out[i] = Bucket{
			Tile:       g.Tile,
			Count:      g.Sample.Len(),
			Population: pop,
			Share:      pop / total,
			Min:        slices.Min(g.Sample.Values),
			Max:        slices.Max(g.Sample.Values),
		}
	}
	return out, nil
}

// growthIncidence 두 시점 GIC, MaxTile > 0 이면 그 분위까지만
func growthIncidence(a Analysis, earlier, later *survey.Dataset, ev, ew, lv, lw string) ([]wstat.GrowthPoint, error) {
	es, err := earlier.Sample(ev, ew)
	if err != nil {
		return nil, err
	}
	ls, err := later.Sample(lv, lw)
	if err != nil {
		return nil, err
	}

	points, err := wstat.GrowthIncidence(es, ls, a.tiles())
	if err != nil {
		return nil, err
	}
	if a.MaxTile > 0 {
		points = slices.DeleteFunc(points, func(p wstat.GrowthPoint) bool { return p.Tile > a.MaxTile })
	}
	return points, nil
}

// tileTableBy value 분위별 measure 통계 (셋 중 하나라도 결측인 행 제외)
func tileTableBy(d *survey.Dataset, value, weight, measure string, n int) ([]measures.TileRow, error) {
	cols := []string{value, measure}
	if weight != "" {
		cols = append(cols, weight)
	}
	d, err := complete(d, cols...)
	if err != nil {
		return nil, err
	}

	ranking, err := d.Sample(value, weight)
	if err != nil {
		return nil, err
	}
	m, err := d.Floats(measure)
	if err != nil {
		return nil, err
	}
	return measures.TileTableBy(ranking, m, n)
}

// sourceShares 소득원 구성비, 가중치 결측 행 제외
func sourceShares(d *survey.Dataset, weight string, components []string) ([]measures.Share, error) {
	d, err := completeWeight(d, weight)
	if err != nil {
		return nil, err
	}
	weights, err := weightsOf(d, weight)
	if err != nil {
		return nil, err
	}

	sources := make([]measures.Source, len(components))
	for i, c := range components {
		vals, err := d.Floats(c)
		if err != nil {
			return nil, err
		}
		sources[i] = measures.Source{Name: c, Values: vals}
	}
	return measures.SourceShares(weights, sources)
}

// householdSizes 가구원 수 분포 (가구 식별자 결측 행 제외)
func householdSizes(d *survey.Dataset, id, weight string, topCode int) ([]measures.SizeShare, error) {
	d, ids, err := householdRows(d, id, weight)
	if err != nil {
		return nil, err
	}
	weights, err := weightsOf(d, weight)
	if err != nil {
		return nil, err
	}
	return measures.HouseholdSizes(ids, weights, topCode)
}

// transferSim 세율별 가구 내 재분배 후 분위 배율
// value 가 결측인 개인은 가구원 수에서도 빠짐
func transferSim(d *survey.Dataset, id, value, weight string, rates []float64, n int) ([]measures.TransferRatio, error) {
	d, err := complete(d, value)
	if err != nil {
		return nil, err
	}
	d, ids, err := householdRows(d, id, weight)
	if err != nil {
		return nil, err
	}
	vals, err := d.Floats(value)
	if err != nil {
		return nil, err
	}
	weights, err := weightsOf(d, weight)
	if err != nil {
		return nil, err
	}
	return measures.TransferSimulation(ids, vals, weights, rates, n)
}

// householdRows 가구 식별자와 가중치가 있는 행 + 행별 가구 키
func householdRows(d *survey.Dataset, id, weight string) (*survey.Dataset, []string, error) {
	d, err := completeWeight(d, weight)
	if err != nil {
		return nil, nil, err
	}
	col, err := d.Column(id)
	if err != nil {
		return nil, nil, err
	}
	d = d.Filter(func(row int) bool { return !col.Missing(row) })
	ids, err := d.Keys(id)
	if err != nil {
		return nil, nil, err
	}
	return d, ids, nil
}

// weightsOf 가중치 열, 없으면 1
func weightsOf(d *survey.Dataset, weight string) ([]float64, error) {
	if weight != "" {
		return d.Floats(weight)
	}
	weights := make([]float64, d.Rows())
	for i := range weights {
		weights[i] = 1
	}
	return weights, nil
}

func completeWeight(d *survey.Dataset, weight string) (*survey.Dataset, error) {
	if weight == "" {
		return d, nil
	}
	return complete(d, weight)
}

// complete 지정 열이 모두 결측이 아닌 행만 남김
func complete(d *survey.Dataset, cols ...string) (*survey.Dataset, error) {
	vals := make([][]float64, len(cols))
	for i, c := range cols {
		v, err := d.Floats(c)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return d.Filter(func(row int) bool {
		for _, v := range vals {
			if math.IsNaN(v[row]) {
				return false
			}
		}
		return true
	}), nil
}
