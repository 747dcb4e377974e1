package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/exercise"
	"github.com/wonny/ineqlab/internal/render"
	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/pkg/config"
	"github.com/wonny/ineqlab/pkg/database"
	"github.com/wonny/ineqlab/pkg/logger"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		plot    bool
		csvOut  bool
		save    bool
		asJSON  bool
		outDir  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <exercise.yaml>",
		Short: "실습 정의(YAML) 실행",
		Long: `실습 YAML 의 모든 분석을 순서대로 실행합니다.

--csv   결과 CSV/HTML/JSON 을 OUTPUT_DIR/<exercise_id>/<run_id>/ 에 기록
--plot  곡선 PNG 도 기록 (--csv 포함)
--save  describe 요약을 PostgreSQL 에 저장 (DATABASE_URL 필요)

Example:
  go run ./cmd/ineq run config/exercises/income_distribution.yaml
  go run ./cmd/ineq run config/exercises/income_distribution.yaml --plot --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.setup()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.OutputDir
			}

			ex, _, err := exercise.Load(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			// DB 는 table 데이터셋이나 --save 가 있을 때만 연결
			var repo *survey.Repository
			if save || usesTables(ex) {
				db, err := connect(cfg, log)
				if err != nil {
					return err
				}
				defer db.Close()
				repo = survey.NewRepository(db.Pool)
			}

			var tables exercise.TableSource
			if repo != nil {
				tables = repo
			}
			runner := exercise.NewRunner(survey.NewCatalog(cfg.DataDir, log), tables, log)

			report, err := runner.Run(ctx, ex)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(w, report)
			}

			if csvOut || plot {
				files, err := render.NewExporter(outDir, plot, log).Export(report)
				if err != nil {
					return err
				}
				if !asJSON {
					PrintSuccess(w, fmt.Sprintf("Wrote %d files to %s", len(files), outDir))
				}
			}

			if save {
				if err := saveSummaries(ctx, repo, report); err != nil {
					return err
				}
				if !asJSON {
					PrintSuccess(w, "Saved summaries to database")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plot, "plot", false, "write PNG charts (implies --csv)")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "write CSV, HTML and JSON results")
	cmd.Flags().BoolVar(&save, "save", false, "save describe summaries to PostgreSQL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default OUTPUT_DIR)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the run after this duration (e.g. 30s)")
	return cmd
}

func usesTables(cfg *exercise.Config) bool {
	for _, d := range cfg.Datasets {
		if d.Table != "" {
			return true
		}
	}
	return false
}

// connect DATABASE_URL 미설정이면 명확한 오류
func connect(cfg *config.Config, log *logger.Logger) (*database.DB, error) {
	db, err := database.New(cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		return nil, fmt.Errorf("set DATABASE_URL to use table datasets or --save: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Debug("Connected to database")
	return db, nil
}

func saveSummaries(ctx context.Context, repo *survey.Repository, report *exercise.Report) error {
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.SaveSummaries(ctx, report.SummaryRecords())
}

func printReport(w io.Writer, report *exercise.Report) {
	PrintHeader(w, report.Title,
		[2]string{"Exercise", report.ExerciseID},
		[2]string{"Run ID", report.RunID},
		[2]string{"Hash", report.ConfigHash[:12]},
		[2]string{"Duration", strconv.FormatInt(report.DurationMs, 10) + "ms"},
	)
	for _, warn := range report.Warnings {
		PrintWarning(w, fmt.Sprintf("[%s] %s", warn.Code, warn.Message))
	}

	rows := [][]string{{"id", "kind", "dataset", "column", "groups"}}
	for _, r := range report.Results {
		groups := "-"
		if r.GroupBy != "" {
			groups = fmt.Sprintf("%s (%d)", r.GroupBy, len(r.Groups))
		}
		rows = append(rows, []string{r.ID, string(r.Kind), r.Dataset, r.Column, groups})
	}
	PrintTable(w, rows)

	// describe 결과는 표로 바로 보여줌
	for _, rec := range report.SummaryRecords() {
		fmt.Fprintf(w, "\n[%s %s", rec.Dataset, rec.Value)
		if rec.Group != "" {
			fmt.Fprintf(w, " %s", rec.Group)
		}
		fmt.Fprintln(w, "]")
		for _, row := range rec.Summary.Rows() {
			PrintKeyValue(w, row.Label, row.Value, 8)
		}
	}
}
