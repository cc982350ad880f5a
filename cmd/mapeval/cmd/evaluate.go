package cmd

import (
	"fmt"

	"github.com/money-shredder/map-service/pkg/datastructure"
	"github.com/money-shredder/map-service/pkg/evaluation"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Precision and recall of inferred matches against the ground truth",
	Long: `Reads route_<trajectoryID>.txt match files from the predicted and ground-truth folders and prints
"Precision recall: <precision>,<recall>,<f-score>". Trajectories present on one side only are reported
as unmatched. Length weighting needs the road network given by --map_path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.PredictedFolder == "" || cfg.GroundTruthFolder == "" {
			return util.WrapErrorf(nil, util.ErrBadParamInput, "predicted_folder and ground_truth_folder are required")
		}
		weighting, err := evaluation.ParseWeighting(cfg.Weighting)
		if err != nil {
			return err
		}

		var graph *datastructure.RoadNetworkGraph
		if cfg.MapPath != "" {
			graph, err = datastructure.ReadMap(cfg.MapPath, df)
			if err != nil {
				return err
			}
			log.Info("road network loaded", zap.String("map", cfg.MapPath),
				zap.Int("nodes", graph.NumberOfNodes()), zap.Int("ways", graph.NumberOfWays()))
		}

		evaluator, err := evaluation.NewPrecisionRecallEvaluator(graph, weighting, cfg.Workers, log)
		if err != nil {
			return err
		}
		log.Sugar().Infof("precision-recall map-matching evaluation on %s dataset", cfg.Dataset)
		res, err := evaluator.EvaluateFolders(cfg.PredictedFolder, cfg.GroundTruthFolder)
		if err != nil {
			return err
		}
		if len(res.UnmatchedIDs) > 0 {
			log.Debug("unmatched trajectories", zap.Strings("ids", res.UnmatchedIDs))
		}
		log.Info(res.Summary())
		fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("map_path", "", "road network map file, needed for length weighting")
	evaluateCmd.Flags().String("predicted_folder", "", "folder of inferred route_<id>.txt match files")
	evaluateCmd.Flags().String("ground_truth_folder", "", "folder of ground-truth route_<id>.txt match files")
	evaluateCmd.Flags().String("weighting", "unit", "unit counts every road way once, length weighs it by its length")
}
