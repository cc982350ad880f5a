package cmd

import (
	"fmt"

	"github.com/money-shredder/map-service/pkg/datastructure"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Load a map file, check its back-references and print its size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MapPath == "" {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "map_path is required")
		}
		graph, err := datastructure.ReadMap(cfg.MapPath, df)
		if err != nil {
			return err
		}
		s := graph.Stats()
		b := graph.Bound()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "nodes: %d\n", s.Nodes)
		fmt.Fprintf(out, "ways: %d\n", s.Ways)
		fmt.Fprintf(out, "intersections: %d\n", s.Intersections)
		fmt.Fprintf(out, "dead ends: %d\n", s.DeadEnds)
		fmt.Fprintf(out, "total length: %.3f\n", s.TotalLength)
		fmt.Fprintf(out, "bound: %.5f %.5f %.5f %.5f\n", b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
		return nil
	},
}

func init() {
	statsCmd.Flags().String("map_path", "", "road network map file")
}
