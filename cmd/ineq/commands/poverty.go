package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/measures"
	"github.com/wonny/ineqlab/internal/wstat"
)

func newPovertyCmd(root *rootOptions) *cobra.Command {
	var (
		ds   datasetFlags
		line float64
	)

	cmd := &cobra.Command{
		Use:   "poverty",
		Short: "빈곤율 (FGT0)",
		Long: `빈곤선 미만 인구 비율을 가중/비가중으로 출력합니다.

Example:
  go run ./cmd/ineq poverty --file eph_2006 --value ipcf --weight pondera --line 150 --group region`,
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
			results, err := byGroup(&ds, d, func(s wstat.Sample) (measures.Poverty, error) {
				return measures.Headcount(s, line)
			})
			if err != nil {
				return err
			}

			rows := [][]string{{"group", "rate", "unweighted", "population", "poor", "poor_count"}}
			for _, r := range results {
				p := r.Value
				rows = append(rows, []string{
					r.Key,
					pct(p.Rate),
					pct(p.UnweightedRate),
					num(p.Population),
					num(p.PoorPopulation),
					strconv.Itoa(p.PoorCount),
				})
			}

			w := cmd.OutOrStdout()
			fields := append(ds.fields(), [2]string{"Line", strconv.FormatFloat(line, 'f', -1, 64)})
			PrintHeader(w, "Poverty headcount", fields...)
			PrintTable(w, rows)
			return nil
		},
	}
	ds.register(cmd)
	cmd.Flags().Float64Var(&line, "line", 0, "poverty line (value < line is poor)")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}
