package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/wstat"
)

func newPercentileCmd(root *rootOptions) *cobra.Command {
	var (
		ds    datasetFlags
		probs []float64
	)

	cmd := &cobra.Command{
		Use:   "percentile",
		Short: "가중 백분위수 (중점 보간)",
		Long: `가중 백분위수를 출력합니다.

정렬된 관측치의 누적 가중치 중점 (S_i - w_i/2)/Σw 를
선형 보간하여 p 분위의 값을 구합니다.

Example:
  go run ./cmd/ineq percentile --file eph_2006 --value ipcf --weight pondera --p 0.1,0.5,0.9`,
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
			results, err := byGroup(&ds, d, func(s wstat.Sample) ([]float64, error) {
				return wstat.Percentiles(s, probs...)
			})
			if err != nil {
				return err
			}

			rows := [][]string{{"p"}}
			for _, r := range results {
				rows[0] = append(rows[0], r.Key)
			}
			for i, p := range probs {
				row := []string{strconv.FormatFloat(p, 'f', -1, 64)}
				for _, r := range results {
					row = append(row, num(r.Value[i]))
				}
				rows = append(rows, row)
			}

			w := cmd.OutOrStdout()
			PrintHeader(w, "Weighted percentiles", ds.fields()...)
			PrintTable(w, rows)
			return nil
		},
	}
	ds.register(cmd)
	cmd.Flags().Float64SliceVar(&probs, "p", []float64{0.1, 0.25, 0.5, 0.75, 0.9}, "probabilities in [0,1]")
	return cmd
}
