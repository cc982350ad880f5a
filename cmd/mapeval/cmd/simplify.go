package cmd

import (
	"fmt"

	"github.com/money-shredder/map-service/pkg/ingest"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify",
	Short: "Down-sample and Douglas-Peucker compress trip_<id>.txt trajectories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TrajectoryFolder == "" || cfg.OutputFolder == "" {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "trajectory_folder and output_folder are required")
		}
		reader, err := ingest.NewTrajectoryReader(df, cfg.DownSampleRate, cfg.DPTolerance, cfg.Workers, log)
		if err != nil {
			return err
		}
		trajectories, err := reader.ReadTrajectoriesToStream(cmd.Context(), cfg.TrajectoryFolder)
		if err != nil {
			return err
		}

		points := 0
		for _, traj := range trajectories {
			points += traj.Len()
			if ce := log.Check(zap.DebugLevel, "trajectory simplified"); ce != nil {
				ce.Write(zap.String("trajectoryID", traj.ID()), zap.Int("points", traj.Len()),
					zap.String("polyline", traj.EncodePolyline()))
			}
		}
		if err := ingest.WriteTrajectories(cfg.OutputFolder, trajectories); err != nil {
			return err
		}
		log.Info("trajectories simplified",
			zap.Int("trajectories", len(trajectories)),
			zap.Int("points", points),
			zap.Int("downSampleRate", cfg.DownSampleRate),
			zap.Float64("tolerance", cfg.DPTolerance))
		fmt.Fprintf(cmd.OutOrStdout(), "%d trajectories, %d points written to %s\n", len(trajectories), points, cfg.OutputFolder)
		return nil
	},
}

func init() {
	simplifyCmd.Flags().String("trajectory_folder", "", "folder of trip_<id>.txt point files")
	simplifyCmd.Flags().String("output_folder", "", "folder receiving the simplified trip_<id>.txt files")
	simplifyCmd.Flags().Int("downsample_rate", 1, "keep every n-th point plus the first and the last")
	simplifyCmd.Flags().Float64("dp_tolerance", 0, "Douglas-Peucker tolerance in distance units, 0 disables it")
}
