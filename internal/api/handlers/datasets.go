package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/ineqlab/internal/render"
	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
	"github.com/wonny/ineqlab/pkg/redis"
)

// defaultBins 히스토그램 기본 구간 수
const defaultBins = 40

// DatasetHandler DATA_DIR 의 조사 파일에 대한 엔드포인트
type DatasetHandler struct {
	catalog *survey.Catalog
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(catalog *survey.Catalog, cache *redis.Cache, log *logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		catalog: catalog,
		cache:   cache,
		logger:  log,
	}
}

// DatasetInfo 데이터셋 목록 항목
type DatasetInfo struct {
	Name string `json:"name"`
}

// DatasetColumns 데이터셋 열 정보
type DatasetColumns struct {
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// DescribeResponse 데이터셋 describe 결과 (캐시 단위)
type DescribeResponse struct {
	Dataset string                               `json:"dataset"`
	Value   string                               `json:"value"`
	Weight  string                               `json:"weight,omitempty"`
	Filters []string                             `json:"filters,omitempty"`
	Key     string                               `json:"key,omitempty"` // group 의 한 값만 요청한 경우
	Rows    []wstat.Row                          `json:"rows,omitempty"`
	Summary *wstat.Summary                       `json:"summary,omitempty"`
	Groups  []wstat.Keyed[string, wstat.Summary] `json:"groups,omitempty"`
	Cached  bool                                 `json:"cached"`
}

// List returns dataset names under DATA_DIR
// GET /api/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list datasets")
		respondError(w, http.StatusInternalServerError, "Failed to list datasets")
		return
	}

	out := make([]DatasetInfo, len(names))
	for i, n := range names {
		out[i] = DatasetInfo{Name: n}
	}
	respondJSON(w, http.StatusOK, out)
}

// Columns returns column names of a dataset
// GET /api/datasets/{name}
func (h *DatasetHandler) Columns(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.Open(mux.Vars(r)["name"])
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, DatasetColumns{Name: d.Name, Rows: d.Rows(), Columns: d.Names()})
}

// Describe returns the weighted summary of a column (cached)
// GET /api/datasets/{name}/describe?value=ipcf&weight=pondera&group=region&key=1&filter=ipcf>0
func (h *DatasetHandler) Describe(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q, err := parseQuery(r)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	key := redis.DatasetKey("describe", name, q.value, q.weight, q.group, q.key, strings.Join(q.rawFilters, ","))
	resp, hit, err := redis.GetOrSet(r.Context(), h.cache, key, func() (DescribeResponse, error) {
		return h.describe(name, q)
	})
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	resp.Cached = hit
	respondJSON(w, http.StatusOK, resp)
}

func (h *DatasetHandler) describe(name string, q datasetQuery) (DescribeResponse, error) {
	d, err := h.open(name, q)
	if err != nil {
		return DescribeResponse{}, err
	}

	resp := DescribeResponse{Dataset: name, Value: q.value, Weight: q.weight, Filters: q.rawFilters}
	if q.group == "" {
		s, err := d.Sample(q.value, q.weight)
		if err != nil {
			return DescribeResponse{}, err
		}
		sum, err := wstat.Describe(s)
		if err != nil {
			return DescribeResponse{}, err
		}
		resp.Summary = &sum
		resp.Rows = sum.Rows()
		return resp, nil
	}

	s, keys, err := d.GroupedSample(q.value, q.weight, q.group)
	if err != nil {
		return DescribeResponse{}, err
	}
	if resp.Groups, err = wstat.ByPartition(s, func(i int) string { return keys[i] }, wstat.Describe); err != nil {
		return DescribeResponse{}, err
	}
	if q.key == "" {
		return resp, nil
	}

	// 단일 그룹 선택: 없는 키는 404
	sum, err := wstat.Lookup(resp.Groups, q.key)
	if err != nil {
		return DescribeResponse{}, err
	}
	resp.Key = q.key
	resp.Summary = &sum
	resp.Rows = sum.Rows()
	resp.Groups = nil
	return resp, nil
}

// Chart renders a curve of a column as an HTML page
// GET /api/datasets/{name}/charts/{kind}?value=ipcf&weight=pondera&group=region
func (h *DatasetHandler) Chart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, kind := vars["name"], wstat.CurveKind(vars["kind"])
	build, ok := curveBuilders[kind]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown curve kind %q", kind))
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	opts, err := curveOptions(r)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	series, err := h.curves(name, q, func(s wstat.Sample) (wstat.Curve, error) { return build(s, opts) })
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s: %s of %s", name, kind, q.value)
	if err := render.WriteChartHTML(&buf, title, strings.Join(q.rawFilters, ", "), series); err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// Histogram renders a weighted histogram PNG
// GET /api/datasets/{name}/histogram?value=ipcf&weight=pondera&bins=40
func (h *DatasetHandler) Histogram(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q, err := parseQuery(r)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	bins := defaultBins
	if b := r.URL.Query().Get("bins"); b != "" {
		if bins, err = strconv.Atoi(b); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'bins' (expected integer)")
			return
		}
	}

	d, err := h.open(name, q)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	s, err := d.Sample(q.value, q.weight)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	p, err := render.Histogram(name, q.value, s, bins)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, p); err != nil {
		respondStatsError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// curves 전체 또는 그룹별 곡선
func (h *DatasetHandler) curves(name string, q datasetQuery, fn func(wstat.Sample) (wstat.Curve, error)) ([]render.Labeled, error) {
	d, err := h.open(name, q)
	if err != nil {
		return nil, err
	}

	if q.group == "" {
		s, err := d.Sample(q.value, q.weight)
		if err != nil {
			return nil, err
		}
		c, err := fn(s)
		if err != nil {
			return nil, err
		}
		return []render.Labeled{{Key: name, Value: c}}, nil
	}

	s, keys, err := d.GroupedSample(q.value, q.weight, q.group)
	if err != nil {
		return nil, err
	}
	return wstat.ByPartition(s, func(i int) string { return keys[i] }, fn)
}

// open 데이터셋 적재 + 필터 적용
func (h *DatasetHandler) open(name string, q datasetQuery) (*survey.Dataset, error) {
	d, err := h.catalog.Open(name)
	if err != nil {
		return nil, err
	}
	if len(q.filters) == 0 {
		return d, nil
	}
	return d.Where(q.filters...)
}

// datasetQuery 공통 쿼리 파라미터
type datasetQuery struct {
	value, weight, group string
	key                  string // group 값 하나 (describe)
	filters              []survey.Filter
	rawFilters           []string
}

func parseQuery(r *http.Request) (datasetQuery, error) {
	v := r.URL.Query()
	q := datasetQuery{
		value:  v.Get("value"),
		weight: v.Get("weight"),
		group:  v.Get("group"),
		key:    v.Get("key"),
	}
	if q.value == "" {
		return q, fmt.Errorf("%w: query parameter 'value' is required", wstat.ErrInvalidInput)
	}
	if q.key != "" && q.group == "" {
		return q, fmt.Errorf("%w: query parameter 'key' requires 'group'", wstat.ErrInvalidInput)
	}
	for _, expr := range v["filter"] {
		f, err := survey.ParseFilter(expr)
		if err != nil {
			return q, err
		}
		q.filters = append(q.filters, f)
		q.rawFilters = append(q.rawFilters, f.String())
	}
	return q, nil
}

func curveOptions(r *http.Request) (wstat.CurveOptions, error) {
	v := r.URL.Query()
	var opts wstat.CurveOptions
	opts.Log = v.Get("log") == "true"

	for key, dst := range map[string]*float64{"cutoff": &opts.Cutoff, "log_offset": &opts.LogOffset} {
		raw := v.Get(key)
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: query parameter %q", wstat.ErrInvalidInput, key)
		}
		*dst = f
	}
	return opts, nil
}
