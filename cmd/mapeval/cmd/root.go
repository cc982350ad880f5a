package cmd

import (
	"fmt"
	"os"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/logger"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	v   = viper.New()
	cfg *util.Config
	log *zap.Logger
	df  geo.DistanceFunction
)

var rootCmd = &cobra.Command{
	Use:   "mapeval",
	Short: "Map-matching evaluation toolkit",
	Long: `mapeval compares inferred map-matching results with a ground truth over a road network,
and prepares the inputs: it simplifies raw trajectories and imports OpenStreetMap extracts.

Settings come from data/config.yaml or ./config.yaml, MAPEVAL_* environment variables and flags,
in increasing priority.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// cmd.Flags() already holds the persistent flags of the root
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		var err error
		cfg, err = util.ReadConfig(v)
		if err != nil {
			return err
		}
		log, err = logger.New()
		if err != nil {
			return err
		}
		df = geo.DistanceFunctionFor(cfg.DistanceFunction, cfg.Dataset)
		log.Debug("configuration loaded",
			zap.String("dataset", cfg.Dataset),
			zap.String("distanceFunction", df.Name()),
			zap.Int("workers", cfg.Workers))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the command line. it is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// flag names match the config keys so BindPFlags maps them one to one
	rootCmd.PersistentFlags().String("dataset", "", "dataset name, a name containing Beijing selects great-circle distance")
	rootCmd.PersistentFlags().String("distance_function", "", "euclidean or greatcircle, derived from the dataset when empty")
	rootCmd.PersistentFlags().Int("workers", 0, "parallel workers, defaults to the number of CPUs")

	rootCmd.AddCommand(evaluateCmd, simplifyCmd, importOsmCmd, statsCmd)
}
