package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/pkg/config"
	"github.com/wonny/ineqlab/pkg/logger"
)

// rootOptions 모든 하위 명령이 공유하는 전역 플래그
type rootOptions struct {
	dataDir string
	verbose bool
}

// NewRootCmd builds the command tree
// 테스트마다 새 트리를 만들 수 있도록 전역 변수 대신 생성자를 사용
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ineq",
		Short: "ineqlab - 가중 분포 통계 도구",
		Long: `ineqlab Unified CLI

가구 조사 표본의 가중 분포 통계.
요약 통계, 분위, 빈곤, Lorenz/Pareto/CDF 곡선, 성장 발생 곡선.

Usage:
  go run ./cmd/ineq [command]

Examples:
  go run ./cmd/ineq describe --file eph_2006 --value ipcf --weight pondera
  go run ./cmd/ineq curve lorenz --file eph_2006 --value ipcf --weight pondera --out lorenz.png
  go run ./cmd/ineq run config/exercises/income_distribution.yaml --csv
  go run ./cmd/ineq api`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "survey file directory (default DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newDescribeCmd(opts),
		newPercentileCmd(opts),
		newNTileCmd(opts),
		newCurveCmd(opts),
		newGICCmd(opts),
		newPovertyCmd(opts),
		newRunCmd(opts),
		newAPICmd(opts),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// setup 설정 적재 + stderr 로거 (stdout 은 결과 출력 전용)
func (o *rootOptions) setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.NewWithWriter(cfg, os.Stderr), nil
}
