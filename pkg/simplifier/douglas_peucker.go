package simplifier

import (
	"math"

	"github.com/money-shredder/map-service/pkg/datastructure"
	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/util"
)

// DouglasPeuckerFilter keeps the key points of a trajectory: a point survives when it lies farther than tolerance
// from the chord of the run it belongs to.
type DouglasPeuckerFilter struct {
	tolerance float64
	df        geo.DistanceFunction
}

// NewDouglasPeuckerFilter fails with ErrBadParamInput for a negative or NaN tolerance.
func NewDouglasPeuckerFilter(tolerance float64, df geo.DistanceFunction) (*DouglasPeuckerFilter, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "simplification tolerance must not be negative, got %v", tolerance)
	}
	return &DouglasPeuckerFilter{tolerance: tolerance, df: df}, nil
}

func (f *DouglasPeuckerFilter) Tolerance() float64 {
	return f.tolerance
}

// Simplify returns the ascending indices of the key points of traj.
// a zero tolerance keeps every point.
func (f *DouglasPeuckerFilter) Simplify(traj *datastructure.Trajectory) []int {
	n := traj.Len()
	if f.tolerance == 0 || n <= 2 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true
	f.simplifyRun(traj, 0, n-1, keep)

	indices := make([]int, 0, n)
	for i, k := range keep {
		if k {
			indices = append(indices, i)
		}
	}
	return indices
}

// simplifyRun marks the key points strictly between first and last.
func (f *DouglasPeuckerFilter) simplifyRun(traj *datastructure.Trajectory, first, last int, keep []bool) {
	if last-first < 2 {
		return
	}

	a, b := traj.Get(first).ToPoint(), traj.Get(last).ToPoint()
	maxDist, maxIdx := -1.0, -1
	for i := first + 1; i < last; i++ {
		d := f.df.PointToSegmentDistance(traj.Get(i).ToPoint(), a, b)
		// strict comparison keeps the lowest index on ties
		if d > maxDist {
			maxDist, maxIdx = d, i
		}
	}

	if maxDist <= f.tolerance {
		return
	}
	keep[maxIdx] = true
	f.simplifyRun(traj, first, maxIdx, keep)
	f.simplifyRun(traj, maxIdx, last, keep)
}

// SimplifyTrajectory returns a new trajectory with the same id and metric holding only the key points.
func (f *DouglasPeuckerFilter) SimplifyTrajectory(traj *datastructure.Trajectory) *datastructure.Trajectory {
	return traj.Subset(f.Simplify(traj))
}
