package cmd

import (
	"fmt"

	"github.com/money-shredder/map-service/pkg/osmparser"
	"github.com/spf13/cobra"
)

var importOsmCmd = &cobra.Command{
	Use:   "import-osm <extract.osm.pbf> <map file>",
	Short: "Convert the drivable ways of an OpenStreetMap extract into a map file",
	Long: `Reads an OpenStreetMap extract (.pbf, or .osm xml) and writes the road network in the map text format.
A ".bz2" map file name compresses the output.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := osmparser.ImportRoadNetwork(cmd.Context(), args[0], df, log)
		if err != nil {
			return err
		}
		if err := graph.WriteMap(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d ways written to %s\n", graph.NumberOfNodes(), graph.NumberOfWays(), args[1])
		return nil
	},
}
