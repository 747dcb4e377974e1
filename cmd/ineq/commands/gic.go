package commands

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/ineqlab/internal/render"
	"github.com/wonny/ineqlab/internal/wstat"
)

func newGICCmd(root *rootOptions) *cobra.Command {
	var (
		ds         datasetFlags
		later      string
		laterScale float64
		tiles      int
		maxTile    int
		out        string
	)

	cmd := &cobra.Command{
		Use:   "gic",
		Short: "성장 발생 곡선",
		Long: `두 시점을 각각 N분위로 나누고 분위별 평균 소득 증가율을 계산합니다.
--file 은 이전 시점, --later 는 이후 시점입니다. 필터는 두 시점에 모두 적용됩니다.

Example:
  go run ./cmd/ineq gic --file eph_1992 --scale 2.0994 --later eph_2006 \
    --value ipcf --weight pondera --filter 'cohh==1' --tiles 100 --max-tile 99 --out gic.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ds.group != "" {
				return fmt.Errorf("%w: gic does not support --group", wstat.ErrInvalidInput)
			}
			cfg, log, err := root.setup()
			if err != nil {
				return err
			}

			d0, err := ds.load(cfg.DataDir, log)
			if err != nil {
				return fmt.Errorf("earlier period: %w", err)
			}
			d1, err := ds.loadFile(later, laterScale, cfg.DataDir, log)
			if err != nil {
				return fmt.Errorf("later period: %w", err)
			}
			s0, err := d0.Sample(ds.value, ds.weight)
			if err != nil {
				return fmt.Errorf("earlier period: %w", err)
			}
			s1, err := d1.Sample(ds.value, ds.weight)
			if err != nil {
				return fmt.Errorf("later period: %w", err)
			}

			points, err := wstat.GrowthIncidence(s0, s1, tiles)
			if err != nil {
				return err
			}
			if maxTile > 0 {
				points = slices.DeleteFunc(points, func(p wstat.GrowthPoint) bool { return p.Tile > maxTile })
			}

			w := cmd.OutOrStdout()
			title := fmt.Sprintf("Growth incidence: %s → %s (%s)", ds.file, later, ds.value)
			if out != "" {
				series := []render.Labeled{{Key: ds.value, Value: wstat.GrowthCurve(points)}}
				return emitCurves(w, out, title, "", series)
			}

			rows := [][]string{{"tile", "earlier_mean", "later_mean", "rate"}}
			for _, p := range points {
				rows = append(rows, []string{strconv.Itoa(p.Tile), num(p.EarlierMean), num(p.LaterMean), pct(p.Rate)})
			}
			PrintHeader(w, title, ds.fields()...)
			PrintTable(w, rows)
			return nil
		},
	}
	ds.register(cmd)
	cmd.Flags().StringVar(&later, "later", "", "later-period dataset")
	cmd.Flags().Float64Var(&laterScale, "later-scale", 0, "multiply the later value column")
	cmd.Flags().IntVar(&tiles, "tiles", 100, "number of tiles")
	cmd.Flags().IntVar(&maxTile, "max-tile", 0, "drop tiles above this one (0 = keep all)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.png, .html, .csv)")
	_ = cmd.MarkFlagRequired("later")
	return cmd
}
