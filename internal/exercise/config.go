package exercise

import (
	"github.com/wonny/ineqlab/internal/measures"
	"github.com/wonny/ineqlab/internal/survey"
)

// Config 한 실습(exercise)의 전체 정의: 사용할 데이터셋 + 실행할 분석 목록
type Config struct {
	Meta     Meta       `yaml:"meta" json:"meta"`
	Datasets []Dataset  `yaml:"datasets" json:"datasets"`
	Analyses []Analysis `yaml:"analyses" json:"analyses"`
}

// Meta 메타 정보
type Meta struct {
	ExerciseID  string `yaml:"exercise_id" json:"exercise_id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Dataset 분석 대상 표본 정의
// Path(파일, DATA_DIR 기준 이름 또는 경로) 와 Table(Postgres) 중 정확히 하나
type Dataset struct {
	Name      string          `yaml:"name" json:"name"`
	Path      string          `yaml:"path,omitempty" json:"path,omitempty"`
	Table     string          `yaml:"table,omitempty" json:"table,omitempty"`
	Value     string          `yaml:"value" json:"value"`                             // 예: ipcf
	Weight    string          `yaml:"weight,omitempty" json:"weight,omitempty"`       // 예: pondera ("" = 가중치 1)
	Group     string          `yaml:"group,omitempty" json:"group,omitempty"`         // 예: region
	Scale     float64         `yaml:"scale,omitempty" json:"scale,omitempty"`         // value 열 배율 (디플레이터), 0 = 변환 없음
	Household string          `yaml:"household,omitempty" json:"household,omitempty"` // 가구 식별자 열 (예: id)
	Filters   []survey.Filter `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// Kind 분석 종류
type Kind string

const (
	KindDescribe      Kind = "describe"
	KindPercentiles   Kind = "percentiles"
	KindNTile         Kind = "ntile"
	KindTileTable     Kind = "tile_table"
	KindPoverty       Kind = "poverty"
	KindQuantileRatio Kind = "quantile_ratio"
	KindBoxPlot       Kind = "boxplot"
	KindShares        Kind = "shares"
	KindCDF           Kind = "cdf"
	KindPareto        Kind = "pareto"
	KindLorenz        Kind = "lorenz"
	KindGLorenz       Kind = "glorenz"
	KindGIC           Kind = "gic"
	KindHouseholdSize Kind = "household_size"
	KindTransferSim   Kind = "transfer_sim"
)

// Kinds 지원하는 분석 종류 (검증 순서)
var Kinds = []Kind{
	KindDescribe, KindPercentiles, KindNTile, KindTileTable, KindPoverty,
	KindQuantileRatio, KindBoxPlot, KindShares, KindHouseholdSize, KindTransferSim,
	KindCDF, KindPareto, KindLorenz, KindGLorenz, KindGIC,
}

// IsCurve 결과가 곡선(점 집합)인 분석
func (k Kind) IsCurve() bool {
	switch k {
	case KindCDF, KindPareto, KindLorenz, KindGLorenz, KindGIC:
		return true
	}
	return false
}

// Analysis 데이터셋 하나(gic 는 두 개)에 적용할 통계
type Analysis struct {
	ID           string    `yaml:"id" json:"id"`
	Kind         Kind      `yaml:"kind" json:"kind"`
	Dataset      string    `yaml:"dataset" json:"dataset"`
	LaterDataset string    `yaml:"later_dataset,omitempty" json:"later_dataset,omitempty"` // gic 전용
	Value        string    `yaml:"value,omitempty" json:"value,omitempty"`                 // 데이터셋 value 재정의
	Measure      string    `yaml:"measure,omitempty" json:"measure,omitempty"`             // tile_table: value 분위별로 집계할 열
	Groups       bool      `yaml:"groups,omitempty" json:"groups,omitempty"`               // 데이터셋 group 열 기준 파티션별 실행

	// 파라미터
	Tiles         int           `yaml:"tiles,omitempty" json:"tiles,omitempty"`
	Probabilities []float64     `yaml:"probabilities,omitempty" json:"probabilities,omitempty"`
	PovertyLine   float64       `yaml:"poverty_line,omitempty" json:"poverty_line,omitempty"`
	Cutoff        float64       `yaml:"cutoff,omitempty" json:"cutoff,omitempty"`
	Log           bool          `yaml:"log,omitempty" json:"log,omitempty"`
	LogOffset     float64       `yaml:"log_offset,omitempty" json:"log_offset,omitempty"`
	Origin        bool          `yaml:"origin,omitempty" json:"origin,omitempty"`         // lorenz/glorenz: (0,0) 포함
	Components    []string      `yaml:"components,omitempty" json:"components,omitempty"` // shares: 소득원 열
	Combine       []Combination `yaml:"combine,omitempty" json:"combine,omitempty"`       // shares: 합산 소득원
	MaxTile       int           `yaml:"max_tile,omitempty" json:"max_tile,omitempty"`     // gic: 이 분위까지만 (예: 99)
	TopCode       int           `yaml:"top_code,omitempty" json:"top_code,omitempty"`     // household_size: 이 인원 이상은 한 범주 (기본 6)
	Rates         []float64     `yaml:"rates,omitempty" json:"rates,omitempty"`           // transfer_sim: 비례세율 목록
}

func (a Analysis) topCode() int {
	if a.TopCode > 0 {
		return a.TopCode
	}
	return measures.DefaultTopCode
}

// Combination 여러 소득원을 묶은 이름 (예: transfers = ijubi + itranspriv)
type Combination struct {
	Name  string   `yaml:"name" json:"name"`
	Parts []string `yaml:"parts" json:"parts"`
}

// DatasetByName 이름으로 데이터셋 정의 조회
func (c *Config) DatasetByName(name string) (Dataset, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

// valueOf 분석에서 사용할 value 열
func (a Analysis) valueOf(d Dataset) string {
	if a.Value != "" {
		return a.Value
	}
	return d.Value
}

// defaultTiles 분석 종류별 기본 분위 수
func (a Analysis) tiles() int {
	if a.Tiles > 0 {
		return a.Tiles
	}
	switch a.Kind {
	case KindGIC:
		return 100
	case KindQuantileRatio, KindTransferSim:
		return 5
	}
	return 10
}
