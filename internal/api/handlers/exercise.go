package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/ineqlab/internal/exercise"
	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/pkg/database"
	"github.com/wonny/ineqlab/pkg/logger"
	"github.com/wonny/ineqlab/pkg/redis"
)

// ExerciseHandler 실습 실행 및 저장된 요약 조회
type ExerciseHandler struct {
	runner *exercise.Runner
	repo   *survey.Repository // nil 이면 저장/조회 불가
	logger *logger.Logger
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(runner *exercise.Runner, repo *survey.Repository, log *logger.Logger) *ExerciseHandler {
	return &ExerciseHandler{
		runner: runner,
		repo:   repo,
		logger: log,
	}
}

// Run executes an exercise posted as YAML
// POST /api/exercises/run?save=true
func (h *ExerciseHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := exercise.Parse(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	save := r.URL.Query().Get("save") == "true"
	if save && h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	report, err := h.runner.Run(ctx, cfg)
	if err != nil {
		respondStatsError(w, h.logger, err)
		return
	}

	if save {
		if err := h.repo.SaveSummaries(ctx, report.SummaryRecords()); err != nil {
			h.logger.WithError(err).WithField("run_id", report.RunID).Error("Failed to save summaries")
			respondError(w, http.StatusInternalServerError, "Failed to save summaries")
			return
		}
	}

	respondJSON(w, http.StatusOK, report)
}

// Summaries lists saved describe summaries of a dataset
// GET /api/summaries?dataset=eph2006&limit=20
func (h *ExerciseHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'dataset' is required")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected positive integer)")
			return
		}
		limit = n
	}

	recs, err := h.repo.ListSummaries(r.Context(), dataset, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list summaries")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve summaries")
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// HealthHandler 서버 및 선택 의존성(DB, Redis) 상태
type HealthHandler struct {
	db    *database.DB // nil = 미설정
	redis *redis.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

// Health returns server health status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "ineqlab-api",
	}

	if h.db != nil {
		hs, err := h.db.HealthCheck(ctx)
		resp["database"] = hs
		if err != nil {
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
		}
	} else {
		resp["database"] = "disabled"
	}

	switch {
	case h.redis == nil || !h.redis.Enabled():
		resp["redis"] = "disabled"
	case h.redis.Ping(ctx) != nil:
		status = http.StatusServiceUnavailable
		resp["status"] = "degraded"
		resp["redis"] = "unreachable"
	default:
		resp["redis"] = "ok"
	}

	respondJSON(w, status, resp)
}
