package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ineqlab/internal/api/handlers"
	"github.com/wonny/ineqlab/pkg/logger"
)

// Handlers 라우터에 연결할 핸들러 묶음
type Handlers struct {
	Health   *handlers.HealthHandler
	Stats    *handlers.StatsHandler
	Datasets *handlers.DatasetHandler
	Exercise *handlers.ExerciseHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// 요청 본문의 표본으로 계산
	api.HandleFunc("/stats/describe", h.Stats.Describe).Methods("POST")
	api.HandleFunc("/stats/percentiles", h.Stats.Percentiles).Methods("POST")
	api.HandleFunc("/stats/ntiles", h.Stats.NTiles).Methods("POST")
	api.HandleFunc("/curves/gic", h.Stats.GIC).Methods("POST") // {kind} 보다 먼저
	api.HandleFunc("/curves/{kind}", h.Stats.Curve).Methods("POST")

	// DATA_DIR 데이터셋
	api.HandleFunc("/datasets", h.Datasets.List).Methods("GET")
	api.HandleFunc("/datasets/{name}", h.Datasets.Columns).Methods("GET")
	api.HandleFunc("/datasets/{name}/describe", h.Datasets.Describe).Methods("GET")
	api.HandleFunc("/datasets/{name}/charts/{kind}", h.Datasets.Chart).Methods("GET")
	api.HandleFunc("/datasets/{name}/histogram", h.Datasets.Histogram).Methods("GET")

	// 실습
	api.HandleFunc("/exercises/run", h.Exercise.Run).Methods("POST")
	api.HandleFunc("/summaries", h.Exercise.Summaries).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Not found",
	})
}

// statusRecorder 응답 상태 코드 기록
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
