package survey

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ineqlab/internal/wstat"
)

// schema 요약 저장 테이블
const schema = `
	CREATE SCHEMA IF NOT EXISTS ineq;
	CREATE TABLE IF NOT EXISTS ineq.summaries (
		run_id        TEXT        NOT NULL,
		dataset       TEXT        NOT NULL,
		value_column  TEXT        NOT NULL,
		weight_column TEXT        NOT NULL DEFAULT '',
		group_key     TEXT        NOT NULL DEFAULT '',
		count         INTEGER     NOT NULL,
		count_w       DOUBLE PRECISION NOT NULL,
		mean          DOUBLE PRECISION NOT NULL,
		std           DOUBLE PRECISION NOT NULL,
		min           DOUBLE PRECISION NOT NULL,
		p25           DOUBLE PRECISION NOT NULL,
		p50           DOUBLE PRECISION NOT NULL,
		p75           DOUBLE PRECISION NOT NULL,
		max           DOUBLE PRECISION NOT NULL,
		cv            DOUBLE PRECISION NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_id, dataset, value_column, group_key)
	)
`

// SummaryRecord 저장된 describe 결과 한 건
type SummaryRecord struct {
	RunID     string        `json:"run_id"`
	Dataset   string        `json:"dataset"`
	Value     string        `json:"value"`
	Weight    string        `json:"weight"`
	Group     string        `json:"group"` // 전체 표본이면 ""
	Summary   wstat.Summary `json:"summary"`
	CreatedAt time.Time     `json:"created_at"`
}

// Repository Postgres 에 보관된 조사 테이블 적재 및 요약 저장
// ⭐ SSOT: 조사 데이터 DB 접근은 이 타입으로만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new survey repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema 요약 테이블 생성 (있으면 무시)
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure summary schema: %w", err)
	}
	return nil
}

// LoadTable 테이블의 지정 열을 Dataset 으로 적재 ("schema.table" 허용)
// NULL 은 결측(NaN)
func (r *Repository) LoadTable(ctx context.Context, table string, columns []string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns requested from %s", wstat.ErrInvalidInput, table)
	}

	idents := make([]string, len(columns))
	for i, c := range columns {
		idents[i] = pgx.Identifier{c}.Sanitize()
	}
	query := fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(idents, ", "),
		pgx.Identifier(strings.Split(table, ".")).Sanitize(),
	)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	// 열 형식은 결과 메타데이터의 타입 OID 로 결정
	cols := make([]Column, len(columns))
	for i, fd := range rows.FieldDescriptions() {
		cols[i] = Column{Name: columns[i]}
		if isNumericOID(fd.DataTypeOID) {
			cols[i].Floats = []float64{}
		} else {
			cols[i].Strings = []string{}
		}
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		for i, v := range values {
			if cols[i].Numeric() {
				cols[i].Floats = append(cols[i].Floats, toFloat(v))
			} else {
				cols[i].Strings = append(cols[i].Strings, toText(v))
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	return NewDataset(table, cols...)
}

// upsertSummary 같은 run/dataset/value/group 이면 갱신
const upsertSummary = `
	INSERT INTO ineq.summaries (
		run_id, dataset, value_column, weight_column, group_key,
		count, count_w, mean, std, min, p25, p50, p75, max, cv
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (run_id, dataset, value_column, group_key) DO UPDATE SET
		weight_column = EXCLUDED.weight_column,
		count = EXCLUDED.count,
		count_w = EXCLUDED.count_w,
		mean = EXCLUDED.mean,
		std = EXCLUDED.std,
		min = EXCLUDED.min,
		p25 = EXCLUDED.p25,
		p50 = EXCLUDED.p50,
		p75 = EXCLUDED.p75,
		max = EXCLUDED.max,
		cv = EXCLUDED.cv
`

// SaveSummary describe 결과 한 건 저장
func (r *Repository) SaveSummary(ctx context.Context, rec SummaryRecord) error {
	return r.SaveSummaries(ctx, []SummaryRecord{rec})
}

// SaveSummaries 한 실행의 요약을 단일 트랜잭션으로 저장
// 하나라도 실패하면 전부 롤백
func (r *Repository) SaveSummaries(ctx context.Context, recs []SummaryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range recs {
		s := rec.Summary
		_, err := tx.Exec(ctx, upsertSummary,
			rec.RunID, rec.Dataset, rec.Value, rec.Weight, rec.Group,
			s.Count, s.WeightedCount, s.Mean, s.StdDev, s.Min,
			s.P25, s.P50, s.P75, s.Max, s.CV,
		)
		if err != nil {
			return fmt.Errorf("save summary %s/%s: %w", rec.Dataset, rec.Group, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSummaries 데이터셋의 저장된 요약 (최신순)
func (r *Repository) ListSummaries(ctx context.Context, dataset string, limit int) ([]SummaryRecord, error) {
	query := `
		SELECT
			run_id, dataset, value_column, weight_column, group_key,
			count, count_w, mean, std, min, p25, p50, p75, max, cv, created_at
		FROM ineq.summaries
		WHERE dataset = $1
		ORDER BY created_at DESC, group_key
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		s := &rec.Summary
		if err := rows.Scan(
			&rec.RunID, &rec.Dataset, &rec.Value, &rec.Weight, &rec.Group,
			&s.Count, &s.WeightedCount, &s.Mean, &s.StdDev, &s.Min,
			&s.P25, &s.P50, &s.P75, &s.Max, &s.CV, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

func isNumericOID(oid uint32) bool {
	switch oid {
	case pgtype.Float8OID, pgtype.Float4OID, pgtype.Int8OID, pgtype.Int4OID, pgtype.Int2OID, pgtype.NumericOID:
		return true
	}
	return false
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case int8:
		return float64(x)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return math.NaN()
		}
		return f.Float64
	}
	return math.NaN()
}

func toText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
