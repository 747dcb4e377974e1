package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/api"
	"github.com/wonny/ineqlab/internal/api/handlers"
	"github.com/wonny/ineqlab/internal/exercise"
	"github.com/wonny/ineqlab/internal/survey"
	"github.com/wonny/ineqlab/pkg/database"
	"github.com/wonny/ineqlab/pkg/logger"
	"github.com/wonny/ineqlab/pkg/redis"
)

func newAPICmd(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "api",
		Short: "API 서버 시작",
		Long: `REST API 서버를 시작합니다.

DATABASE_URL 이 있으면 table 데이터셋과 요약 저장을,
REDIS_ENABLED=true 이면 데이터셋 describe 캐시를 사용합니다.

Endpoints:
  GET  /health                               - Health check
  POST /api/stats/{describe,percentiles,ntiles}
  POST /api/curves/{cdf,pareto,lorenz,glorenz,gic}
  GET  /api/datasets                         - DATA_DIR 데이터셋 목록
  GET  /api/datasets/{name}/describe         - 가중 요약 (캐시)
  GET  /api/datasets/{name}/charts/{kind}    - echarts HTML
  GET  /api/datasets/{name}/histogram        - PNG
  POST /api/exercises/run                    - 실습 YAML 실행
  GET  /api/summaries                        - 저장된 요약

Example:
  go run ./cmd/ineq api
  go run ./cmd/ineq api --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.setup()
			if err != nil {
				return err
			}
			// Override port if flag is set
			if port != "" {
				cfg.Port = port
			}

			// API 서버 로그는 stdout
			log := logger.New(cfg)
			log.WithFields(map[string]interface{}{
				"port": cfg.Port,
				"env":  cfg.Env,
			}).Info("Initializing API server")

			// 1. Database (선택)
			var (
				db   *database.DB
				repo *survey.Repository
			)
			db, err = database.New(cfg)
			switch {
			case errors.Is(err, database.ErrNotConfigured):
				log.Info("Database disabled")
			case err != nil:
				return fmt.Errorf("connect to database: %w", err)
			default:
				defer db.Close()
				repo = survey.NewRepository(db.Pool)
				if err := repo.EnsureSchema(context.Background()); err != nil {
					return err
				}
				log.Info("Connected to database")
			}

			// 2. Redis (선택)
			rdb, err := redis.New(cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()
			cache := redis.NewCache(rdb, "ineqlab", cfg.Redis.CacheTTL)

			// 3. Catalog, runner
			catalog := survey.NewCatalog(cfg.DataDir, log)
			var tables exercise.TableSource
			if repo != nil {
				tables = repo
			}
			runner := exercise.NewRunner(catalog, tables, log)

			// 4. Handlers, router, server
			router := api.NewRouter(api.Handlers{
				Health:   handlers.NewHealthHandler(db, rdb),
				Stats:    handlers.NewStatsHandler(log),
				Datasets: handlers.NewDatasetHandler(catalog, cache, log),
				Exercise: handlers.NewExerciseHandler(runner, repo, log),
			}, log)
			server := api.New(cfg, log, router)

			// 5. Start server with graceful shutdown
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			w := cmd.OutOrStdout()
			PrintSuccess(w, fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
			fmt.Fprintln(w, "Press Ctrl+C to stop")

			// Wait for interrupt signal or startup failure
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			log.Info("Shutting down server...")

			// Graceful shutdown with timeout
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}

			log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "API 서버 포트 (default PORT)")
	return cmd
}
