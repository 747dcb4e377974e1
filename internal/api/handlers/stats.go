package handlers

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

// StatsHandler 요청 본문의 표본으로 직접 계산하는 엔드포인트
// ⭐ SSOT: 상태 없음, 코어(wstat) 호출만
type StatsHandler struct {
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(log *logger.Logger) *StatsHandler {
	return &StatsHandler{logger: log}
}

// SampleRequest 가중 표본 (weights 생략 시 모두 1, groups 가 있으면 파티션별 계산)
type SampleRequest struct {
	Values  []float64 `json:"values"`
	Weights []float64 `json:"weights,omitempty"`
	Groups  []string  `json:"groups,omitempty"`
}

func (req SampleRequest) sample() (wstat.Sample, error) {
	if req.Weights == nil {
		return wstat.UnitSample(req.Values)
	}
	return wstat.NewSample(req.Values, req.Weights)
}

// PercentilesRequest 백분위수 요청
type PercentilesRequest struct {
	SampleRequest
	Probabilities []float64 `json:"probabilities"`
}

// NTileRequest N분위 배정 요청 (tiles 는 정수여야 함)
type NTileRequest struct {
	SampleRequest
	Tiles float64 `json:"tiles"`
}

// NTileResponse 관측치 순서의 분위 번호
type NTileResponse struct {
	Tiles   int   `json:"tiles"`
	Buckets []int `json:"buckets"`
}

// CurveRequest CDF/Pareto/Lorenz 요청
type CurveRequest struct {
	SampleRequest
	wstat.CurveOptions
	Origin bool `json:"origin,omitempty"` // lorenz/glorenz
}

// GICRequest 성장 발생 곡선 요청
type GICRequest struct {
	Earlier SampleRequest `json:"earlier"`
	Later   SampleRequest `json:"later"`
	Tiles   float64       `json:"tiles"`
	MaxTile int           `json:"max_tile,omitempty"`
}

// Describe returns the weighted summary
// POST /api/stats/describe
func (h *StatsHandler) Describe(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, req, func(s wstat.Sample) (any, error) {
		return wstat.Describe(s)
	})
}

// Percentiles returns midpoint-rule weighted percentiles
// POST /api/stats/percentiles
func (h *StatsHandler) Percentiles(w http.ResponseWriter, r *http.Request) {
	var req PercentilesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, req.SampleRequest, func(s wstat.Sample) (any, error) {
		return wstat.Percentiles(s, req.Probabilities...)
	})
}

// NTiles assigns each observation to a tile
// POST /api/stats/ntiles
func (h *StatsHandler) NTiles(w http.ResponseWriter, r *http.Request) {
	var req NTileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := wstat.TileCount(req.Tiles)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	h.respond(w, req.SampleRequest, func(s wstat.Sample) (any, error) {
		tiles, err := wstat.AssignTiles(s, n)
		if err != nil {
			return nil, err
		}
		return NTileResponse{Tiles: n, Buckets: tiles.Buckets()}, nil
	})
}

// Curve builds a cdf, pareto, lorenz or glorenz curve
// POST /api/curves/{kind}
func (h *StatsHandler) Curve(w http.ResponseWriter, r *http.Request) {
	kind := wstat.CurveKind(mux.Vars(r)["kind"])
	build, ok := curveBuilders[kind]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown curve kind %q", kind))
		return
	}

	var req CurveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, req.SampleRequest, func(s wstat.Sample) (any, error) {
		c, err := build(s, req.CurveOptions)
		if err != nil {
			return nil, err
		}
		if req.Origin && (kind == wstat.KindLorenz || kind == wstat.KindGeneralizedLorenz) {
			c = c.WithOrigin()
		}
		return c, nil
	})
}

// GIC computes the growth-incidence curve between two periods
// POST /api/curves/gic
func (h *StatsHandler) GIC(w http.ResponseWriter, r *http.Request) {
	var req GICRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	points, err := growthIncidence(req)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"points": points,
		"curve":  wstat.GrowthCurve(points),
	})
}

func growthIncidence(req GICRequest) ([]wstat.GrowthPoint, error) {
	n, err := wstat.TileCount(req.Tiles)
	if err != nil {
		return nil, err
	}
	earlier, err := req.Earlier.sample()
	if err != nil {
		return nil, fmt.Errorf("earlier period: %w", err)
	}
	later, err := req.Later.sample()
	if err != nil {
		return nil, fmt.Errorf("later period: %w", err)
	}

	points, err := wstat.GrowthIncidence(earlier, later, n)
	if err != nil {
		return nil, err
	}
	if req.MaxTile > 0 {
		points = slices.DeleteFunc(points, func(p wstat.GrowthPoint) bool { return p.Tile > req.MaxTile })
	}
	return points, nil
}

var curveBuilders = map[wstat.CurveKind]func(wstat.Sample, wstat.CurveOptions) (wstat.Curve, error){
	wstat.KindCDF:    wstat.CDF,
	wstat.KindPareto: wstat.Pareto,
	wstat.KindLorenz: func(s wstat.Sample, _ wstat.CurveOptions) (wstat.Curve, error) {
		return wstat.Lorenz(s)
	},
	wstat.KindGeneralizedLorenz: func(s wstat.Sample, _ wstat.CurveOptions) (wstat.Curve, error) {
		return wstat.GeneralizedLorenz(s)
	},
}

// respond 전체 표본 또는 (groups 가 있으면) 파티션별로 fn 적용
func (h *StatsHandler) respond(w http.ResponseWriter, req SampleRequest, fn func(wstat.Sample) (any, error)) {
	s, err := req.sample()
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	if req.Groups == nil {
		v, err := fn(s)
		if err != nil {
			respondStatsError(w, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"result": v})
		return
	}

	if len(req.Groups) != s.Len() {
		respondStatsError(w, h.logger, fmt.Errorf("%w: %d groups for %d values", wstat.ErrInvalidInput, len(req.Groups), s.Len()))
		return
	}
	groups, err := wstat.ByPartition(s, func(i int) string { return req.Groups[i] }, fn)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}
