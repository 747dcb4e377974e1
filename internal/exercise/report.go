package exercise

import (
	"time"

	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/internal/wstat"
)

// Report 한 번의 실습 실행 결과
type Report struct {
	RunID      string    `json:"run_id"`
	ExerciseID string    `json:"exercise_id"`
	Title      string    `json:"title"`
	ConfigHash string    `json:"config_hash"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Warnings   []Warning `json:"warnings,omitempty"`
	Results    []Result  `json:"results"`
}

// Result 분석 하나의 결과
// Groups 가 있으면 파티션별 결과, 없으면 Value 에 전체 표본 결과
type Result struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Dataset string `json:"dataset"`
	Column  string `json:"column"`
	Weight  string `json:"weight,omitempty"`
	GroupBy string `json:"group_by,omitempty"`

	Value  any                        `json:"value,omitempty"`
	Groups []wstat.Keyed[string, any] `json:"groups,omitempty"`
}

// Quantile 확률 p 의 가중 백분위수
type Quantile struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// Bucket N분위 배정 결과 한 분위
type Bucket struct {
	Tile       int     `json:"tile"`
	Count      int     `json:"count"`
	Population float64 `json:"population"`
	Share      float64 `json:"share"` // 분위 인구 / 총 인구
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// Curves 곡선형 결과를 (라벨, 곡선) 목록으로 변환 (렌더러 입력)
// 곡선이 아닌 결과면 nil
func (r Result) Curves() []wstat.Keyed[string, wstat.Curve] {
	if r.Groups != nil {
		out := make([]wstat.Keyed[string, wstat.Curve], 0, len(r.Groups))
		for _, g := range r.Groups {
			if c, ok := asCurve(g.Value); ok {
				out = append(out, wstat.Keyed[string, wstat.Curve]{Key: g.Key, Value: c})
			}
		}
		return out
	}
	if c, ok := asCurve(r.Value); ok {
		return []wstat.Keyed[string, wstat.Curve]{{Key: r.Dataset, Value: c}}
	}
	return nil
}

func asCurve(v any) (wstat.Curve, bool) {
	switch c := v.(type) {
	case wstat.Curve:
		return c, true
	case []wstat.GrowthPoint:
		return wstat.GrowthCurve(c), true
	}
	return wstat.Curve{}, false
}

// SummaryRecords describe 결과를 저장용 레코드로 변환
func (rep *Report) SummaryRecords() []survey.SummaryRecord {
	var recs []survey.SummaryRecord
	add := func(r Result, group string, v any) {
		s, ok := v.(wstat.Summary)
		if !ok {
			return
		}
		recs = append(recs, survey.SummaryRecord{
			RunID:     rep.RunID,
			Dataset:   r.Dataset,
			Value:     r.Column,
			Weight:    r.Weight,
			Group:     group,
			Summary:   s,
			CreatedAt: rep.StartedAt,
		})
	}

	for _, r := range rep.Results {
		if r.Kind != KindDescribe {
			continue
		}
		if r.Groups == nil {
			add(r, "", r.Value)
			continue
		}
		for _, g := range r.Groups {
			add(r, g.Key, g.Value)
		}
	}
	return recs
}
