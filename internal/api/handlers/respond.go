package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/ineqlab/internal/exercise"
	"github.com/wonny/ineqlab/internal/wstat"
	"github.com/wonny/ineqlab/pkg/logger"
)

// maxBodyBytes 요청 본문 상한 (표본 JSON)
const maxBodyBytes = 32 << 20

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusOf 계산 오류 → HTTP 상태
// ⭐ SSOT: 오류 분류와 상태 코드 매핑은 여기서만
func statusOf(err error) int {
	var ve exercise.ValidationError
	switch {
	case errors.Is(err, wstat.ErrInvalidInput), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, wstat.ErrMissingField):
		return http.StatusNotFound
	case errors.Is(err, wstat.ErrDegenerate):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondStatsError 분류된 오류는 메시지 그대로, 나머지는 로그 후 일반 메시지
func respondStatsError(w http.ResponseWriter, log *logger.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// decodeJSON 본문 JSON 디코딩 (알 수 없는 필드 거부)
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
