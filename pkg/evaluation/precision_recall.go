package evaluation

import (
	"fmt"
	"sort"

	"github.com/money-shredder/map-service/pkg/concurrent"
	"github.com/money-shredder/map-service/pkg/datastructure"
	"github.com/money-shredder/map-service/pkg/util"
	"go.uber.org/zap"
)

// Weighting decides what a matched road way contributes to the overlap ratios.
type Weighting int8

const (
	// UnitCount counts every distinct road way once.
	UnitCount Weighting = iota
	// SegmentLength weighs every distinct road way by its length in the road network.
	SegmentLength
)

func (w Weighting) String() string {
	switch w {
	case UnitCount:
		return "unit"
	case SegmentLength:
		return "length"
	default:
		return fmt.Sprintf("Weighting(%d)", int8(w))
	}
}

func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "", "unit":
		return UnitCount, nil
	case "length":
		return SegmentLength, nil
	default:
		return UnitCount, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown weighting %q, expected unit or length", s)
	}
}

// TrajectoryScore is the precision and recall of one trajectory present on both sides.
type TrajectoryScore struct {
	TrajectoryID string
	Precision    float64
	Recall       float64
	// TruePositive, Predicted and GroundTruth are counts or lengths depending on the weighting.
	TruePositive float64
	Predicted    float64
	GroundTruth  float64
	// UnresolvedSegments counts distinct road way ids missing from the road network under length weighting.
	UnresolvedSegments int
}

// Result is the aggregate of an evaluation run. Precision and Recall are means over the evaluated trajectories.
type Result struct {
	Precision          float64
	Recall             float64
	FScore             float64
	EvaluatedCount     int
	UnmatchedCount     int
	UnresolvedSegments int
	UnmatchedIDs       []string
	Scores             []TrajectoryScore
}

// Summary formats the result as "Precision recall: <precision>,<recall>,<f-score>".
func (r Result) Summary() string {
	return fmt.Sprintf("Precision recall: %.3f,%.3f,%.3f", r.Precision, r.Recall, r.FScore)
}

// PrecisionRecallEvaluator compares predicted road way matches with the ground truth, trajectory by trajectory.
type PrecisionRecallEvaluator struct {
	graph     *datastructure.RoadNetworkGraph
	weighting Weighting
	workers   int
	log       *zap.Logger
}

// NewPrecisionRecallEvaluator needs a road network only for SegmentLength weighting; graph may be nil otherwise.
func NewPrecisionRecallEvaluator(graph *datastructure.RoadNetworkGraph, weighting Weighting, workers int,
	log *zap.Logger) (*PrecisionRecallEvaluator, error) {
	if weighting == SegmentLength && graph == nil {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "length weighting needs a road network")
	}
	if weighting != UnitCount && weighting != SegmentLength {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown weighting %v", weighting)
	}
	if workers < 1 {
		workers = 1
	}
	return &PrecisionRecallEvaluator{graph: graph, weighting: weighting, workers: workers, log: log}, nil
}

type trajectoryPair struct {
	id          string
	predicted   *datastructure.MatchResult
	groundTruth *datastructure.MatchResult
}

// Evaluate scores every trajectory id found in both sets and averages the per-trajectory ratios. ids found on one
// side only are reported as unmatched and left out of the averages.
func (e *PrecisionRecallEvaluator) Evaluate(predicted, groundTruth *datastructure.MatchResultSet) Result {
	pairs := make([]trajectoryPair, 0, predicted.Len())
	unmatched := make([]string, 0)
	for _, id := range predicted.TrajectoryIDs() {
		pred, _ := predicted.Get(id)
		gt, ok := groundTruth.Get(id)
		if !ok {
			unmatched = append(unmatched, id)
			continue
		}
		pairs = append(pairs, trajectoryPair{id: id, predicted: pred, groundTruth: gt})
	}
	for _, id := range groundTruth.TrajectoryIDs() {
		if _, ok := predicted.Get(id); !ok {
			unmatched = append(unmatched, id)
		}
	}
	sort.Strings(unmatched)

	var sumPrecision, sumRecall float64
	scores := make([]TrajectoryScore, 0, len(pairs))
	unresolved := 0
	concurrent.Map(e.workers, pairs, e.scoreTrajectory, func(s TrajectoryScore) {
		sumPrecision += s.Precision
		sumRecall += s.Recall
		unresolved += s.UnresolvedSegments
		scores = append(scores, s)
	})
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].TrajectoryID < scores[j].TrajectoryID
	})

	res := Result{
		EvaluatedCount:     len(scores),
		UnmatchedCount:     len(unmatched),
		UnresolvedSegments: unresolved,
		UnmatchedIDs:       unmatched,
		Scores:             scores,
	}
	if res.EvaluatedCount > 0 {
		res.Precision = sumPrecision / float64(res.EvaluatedCount)
		res.Recall = sumRecall / float64(res.EvaluatedCount)
	}
	res.FScore = fScore(res.Precision, res.Recall)

	if len(unmatched) > 0 {
		e.log.Warn("trajectories without a counterpart", zap.Int("count", len(unmatched)))
	}
	if unresolved > 0 {
		e.log.Warn("road ways missing from the road network", zap.Int("count", unresolved))
	}
	e.log.Info("precision-recall evaluation finished",
		zap.String("weighting", e.weighting.String()),
		zap.Float64("precision", res.Precision),
		zap.Float64("recall", res.Recall),
		zap.Float64("fscore", res.FScore),
		zap.Int("evaluated", res.EvaluatedCount),
		zap.Int("unmatched", res.UnmatchedCount))
	return res
}

// EvaluateFolders reads route_<id>.txt match files from both folders and evaluates them.
func (e *PrecisionRecallEvaluator) EvaluateFolders(predictedFolder, groundTruthFolder string) (Result, error) {
	predicted, err := datastructure.ReadMatchResults(predictedFolder, e.log)
	if err != nil {
		return Result{}, err
	}
	groundTruth, err := datastructure.ReadMatchResults(groundTruthFolder, e.log)
	if err != nil {
		return Result{}, err
	}
	return e.Evaluate(predicted, groundTruth), nil
}

func (e *PrecisionRecallEvaluator) scoreTrajectory(pair trajectoryPair) TrajectoryScore {
	predSet := pair.predicted.SegmentSet()
	gtSet := pair.groundTruth.SegmentSet()

	score := TrajectoryScore{TrajectoryID: pair.id}
	unresolved := make(map[string]struct{})
	for id := range predSet {
		w := e.segmentWeight(id, unresolved)
		score.Predicted += w
		if _, ok := gtSet[id]; ok {
			score.TruePositive += w
		}
	}
	for id := range gtSet {
		score.GroundTruth += e.segmentWeight(id, unresolved)
	}
	score.UnresolvedSegments = len(unresolved)
	score.Precision, score.Recall = precisionRecall(score.TruePositive, score.Predicted, score.GroundTruth)
	return score
}

func (e *PrecisionRecallEvaluator) segmentWeight(segmentID string, unresolved map[string]struct{}) float64 {
	if e.weighting == UnitCount {
		return 1
	}
	way, ok := e.graph.GetWay(segmentID)
	if !ok {
		unresolved[segmentID] = struct{}{}
		return 0
	}
	return way.Length()
}

// precisionRecall applies the empty-side conventions: nothing predicted and nothing expected scores 1,1; nothing
// predicted against a non-empty ground truth scores 0,0; a prediction against an empty ground truth scores 0,1.
func precisionRecall(truePositive, predicted, groundTruth float64) (float64, float64) {
	switch {
	case predicted == 0 && groundTruth == 0:
		return 1, 1
	case predicted == 0:
		return 0, 0
	case groundTruth == 0:
		return 0, 1
	}
	return truePositive / predicted, truePositive / groundTruth
}

func fScore(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
