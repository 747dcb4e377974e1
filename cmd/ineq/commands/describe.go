package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/wstat"
)

func newDescribeCmd(root *rootOptions) *cobra.Command {
	var ds datasetFlags

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "가중 요약 통계",
		Long: `값 열의 가중 요약 통계를 출력합니다.

count, count_w, mean, std, min, 25%, 50%, 75%, max, cv
(백분위수는 중점 보간 규칙)

Example:
  go run ./cmd/ineq describe --file eph_2006 --value ipcf --weight pondera
  go run ./cmd/ineq describe --file eph_2006 --value ipcf --weight pondera --group region --filter 'cohh==1'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.setup()
			if err != nil {
				return err
			}
			d, err := ds.load(cfg.DataDir, log)
			if err != nil {
				return err
			}
			summaries, err := byGroup(&ds, d, wstat.Describe)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			PrintHeader(w, "Weighted summary", ds.fields()...)
			PrintTable(w, summaryTable(summaries))
			return nil
		},
	}
	ds.register(cmd)
	return cmd
}

// summaryTable 행 = 통계 라벨, 열 = 그룹
func summaryTable(summaries []wstat.Keyed[string, wstat.Summary]) [][]string {
	header := []string{""}
	for _, s := range summaries {
		header = append(header, s.Key)
	}
	rows := [][]string{header}

	if len(summaries) == 0 {
		return rows
	}
	for i, r := range summaries[0].Value.Rows() {
		row := []string{r.Label}
		for _, s := range summaries {
			row = append(row, s.Value.Rows()[i].Value)
		}
		rows = append(rows, row)
	}
	return rows
}
