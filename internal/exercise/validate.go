package exercise

import (
	"fmt"
	"math"
	"slices"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validate checks all required constraints
// 실패 시 error 반환 (실행 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ExerciseID == "" {
		return ValidationError{"meta.exercise_id", "required"}
	}

	// === Datasets ===
	if len(cfg.Datasets) == 0 {
		return ValidationError{"datasets", "must not be empty"}
	}
	seen := make(map[string]bool, len(cfg.Datasets))
	for i, d := range cfg.Datasets {
		field := fmt.Sprintf("datasets[%d]", i)
		if d.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[d.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate dataset %q", d.Name)}
		}
		seen[d.Name] = true

		if (d.Path == "") == (d.Table == "") {
			return ValidationError{field, "exactly one of path or table is required"}
		}
		if d.Value == "" {
			return ValidationError{field + ".value", "required"}
		}
		if math.IsNaN(d.Scale) || math.IsInf(d.Scale, 0) || d.Scale < 0 {
			return ValidationError{field + ".scale", "must be a finite value >= 0"}
		}
		for j, f := range d.Filters {
			if err := f.Validate(); err != nil {
				return ValidationError{fmt.Sprintf("%s.filters[%d]", field, j), err.Error()}
			}
		}
	}

	// === Analyses ===
	if len(cfg.Analyses) == 0 {
		return ValidationError{"analyses", "must not be empty"}
	}
	ids := make(map[string]bool, len(cfg.Analyses))
	for i, a := range cfg.Analyses {
		field := fmt.Sprintf("analyses[%d]", i)
		if a.ID == "" {
			return ValidationError{field + ".id", "required"}
		}
		if ids[a.ID] {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate analysis %q", a.ID)}
		}
		ids[a.ID] = true

		if err := validateAnalysis(cfg, a, field); err != nil {
			return err
		}
	}

	return nil
}

func validateAnalysis(cfg *Config, a Analysis, field string) error {
	if !slices.Contains(Kinds, a.Kind) {
		return ValidationError{field + ".kind", fmt.Sprintf("unknown kind %q", a.Kind)}
	}

	d, ok := cfg.DatasetByName(a.Dataset)
	if !ok {
		return ValidationError{field + ".dataset", fmt.Sprintf("unknown dataset %q", a.Dataset)}
	}

	if a.Kind == KindGIC {
		if _, ok := cfg.DatasetByName(a.LaterDataset); !ok {
			return ValidationError{field + ".later_dataset", fmt.Sprintf("unknown dataset %q", a.LaterDataset)}
		}
		if a.Groups {
			return ValidationError{field + ".groups", "not supported for gic"}
		}
	} else if a.LaterDataset != "" {
		return ValidationError{field + ".later_dataset", "only valid for gic"}
	}

	if a.Groups && (a.Kind == KindShares || a.Kind == KindHouseholdSize || a.Kind == KindTransferSim ||
		(a.Kind == KindTileTable && a.Measure != "")) {
		return ValidationError{field + ".groups", fmt.Sprintf("not supported for %s with extra columns", a.Kind)}
	}
	if a.Groups && d.Group == "" {
		return ValidationError{field + ".groups", fmt.Sprintf("dataset %q has no group column", d.Name)}
	}

	if a.Tiles < 0 {
		return ValidationError{field + ".tiles", "must be >= 0"}
	}
	if (a.Kind == KindQuantileRatio || a.Kind == KindTransferSim) && a.Tiles == 1 {
		return ValidationError{field + ".tiles", "must be >= 2"}
	}
	if a.MaxTile < 0 || a.MaxTile > a.tiles() {
		return ValidationError{field + ".max_tile", fmt.Sprintf("must be in range [0, %d]", a.tiles())}
	}

	if err := validatePctRange(a.Cutoff, field+".cutoff"); err != nil {
		return err
	}
	if math.IsNaN(a.LogOffset) || math.IsInf(a.LogOffset, 0) {
		return ValidationError{field + ".log_offset", "must be finite"}
	}

	switch a.Kind {
	case KindPercentiles:
		if len(a.Probabilities) == 0 {
			return ValidationError{field + ".probabilities", "must not be empty"}
		}
		for j, p := range a.Probabilities {
			if err := validatePctRange(p, fmt.Sprintf("%s.probabilities[%d]", field, j)); err != nil {
				return err
			}
		}
	case KindPoverty:
		if math.IsNaN(a.PovertyLine) || math.IsInf(a.PovertyLine, 0) || a.PovertyLine <= 0 {
			return ValidationError{field + ".poverty_line", "must be > 0"}
		}
	case KindShares:
		if len(a.Components) == 0 {
			return ValidationError{field + ".components", "must not be empty"}
		}
		for j, c := range a.Combine {
			cf := fmt.Sprintf("%s.combine[%d]", field, j)
			if c.Name == "" {
				return ValidationError{cf + ".name", "required"}
			}
			if len(c.Parts) == 0 {
				return ValidationError{cf + ".parts", "must not be empty"}
			}
			for _, part := range c.Parts {
				if !slices.Contains(a.Components, part) {
					return ValidationError{cf + ".parts", fmt.Sprintf("%q is not a component", part)}
				}
			}
		}
	case KindHouseholdSize, KindTransferSim:
		if d.Household == "" {
			return ValidationError{field + ".dataset", fmt.Sprintf("dataset %q has no household column", d.Name)}
		}
		if a.TopCode < 0 {
			return ValidationError{field + ".top_code", "must be >= 0"}
		}
		if a.Kind == KindTransferSim && len(a.Rates) == 0 {
			return ValidationError{field + ".rates", "must not be empty"}
		}
		for j, r := range a.Rates {
			if err := validatePctRange(r, fmt.Sprintf("%s.rates[%d]", field, j)); err != nil {
				return err
			}
		}
	}
	if len(a.Combine) > 0 && a.Kind != KindShares {
		return ValidationError{field + ".combine", fmt.Sprintf("only valid for %s", KindShares)}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, d := range cfg.Datasets {
		if d.Weight == "" {
			warnings = append(warnings, Warning{
				Code:    "UNWEIGHTED",
				Message: fmt.Sprintf("dataset %s: 가중치 열 없음, 표본 통계로 계산", d.Name),
			})
		}
	}

	for _, a := range cfg.Analyses {
		// 백분위 GIC 의 최상위 분위는 소수 관측치에 좌우됨
		if a.Kind == KindGIC && a.tiles() >= 100 && a.MaxTile == 0 {
			warnings = append(warnings, Warning{
				Code:    "GIC_TOP_TILE",
				Message: fmt.Sprintf("analysis %s: 최상위 분위 포함, max_tile 지정 권장", a.ID),
			})
		}
	}

	return warnings
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if math.IsNaN(pct) || pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
