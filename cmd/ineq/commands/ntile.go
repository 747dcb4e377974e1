package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/measures"
	"github.com/wonny/ineqlab/internal/wstat"
)

func newNTileCmd(root *rootOptions) *cobra.Command {
	var (
		ds    datasetFlags
		tiles int
	)

	cmd := &cobra.Command{
		Use:   "ntile",
		Short: "N분위별 통계표",
		Long: `값 기준으로 N분위(누적 인구 비중 ceil(S·N))를 나누고
분위별 가중 평균, 표준편차, 인구, 표준오차를 출력합니다.

Example:
  go run ./cmd/ineq ntile --file eph_2006 --value ipcf --weight pondera --tiles 10`,
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
			tables, err := byGroup(&ds, d, func(s wstat.Sample) ([]measures.TileRow, error) {
				return measures.TileTable(s, tiles)
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			PrintHeader(w, fmt.Sprintf("Tile table (N=%d)", tiles), ds.fields()...)
			for _, t := range tables {
				if ds.group != "" {
					fmt.Fprintf(w, "\n[%s=%s]\n", ds.group, t.Key)
				}
				PrintTable(w, tileTable(t.Value))
			}
			return nil
		},
	}
	ds.register(cmd)
	cmd.Flags().IntVar(&tiles, "tiles", 10, "number of tiles (5 = quintiles, 10 = deciles)")
	return cmd
}

func tileTable(rows []measures.TileRow) [][]string {
	out := [][]string{{"tile", "mean", "std", "population", "std_error", "count"}}
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Tile),
			num(r.Mean),
			num(r.StdDev),
			num(r.Population),
			num(r.StdError),
			strconv.Itoa(r.Count),
		})
	}
	return out
}
