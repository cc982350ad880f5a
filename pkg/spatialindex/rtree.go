package spatialindex

import (
	"math"
	"slices"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

const maxNearestExpansions = 32

// Rtree indexes XYObjects as degenerate boxes. not safe for concurrent Insert; concurrent reads are fine.
type Rtree[T any] struct {
	tr    *rtree.RTreeG[XYObject[T]]
	df    geo.DistanceFunction
	bound orb.Bound
	size  int
}

func NewRtree[T any](df geo.DistanceFunction) *Rtree[T] {
	var tr rtree.RTreeG[XYObject[T]]
	return &Rtree[T]{
		tr: &tr,
		df: df,
	}
}

// BuildRtree bulk inserts objs.
func BuildRtree[T any](objs []XYObject[T], df geo.DistanceFunction) *Rtree[T] {
	rt := NewRtree[T](df)
	for _, obj := range objs {
		rt.Insert(obj)
	}
	return rt
}

func (rt *Rtree[T]) Insert(obj XYObject[T]) {
	pt := [2]float64{obj.x, obj.y}
	rt.tr.Insert(pt, pt, obj)
	if rt.size == 0 {
		rt.bound = obj.ToPoint().Bound()
	} else {
		rt.bound = rt.bound.Extend(obj.ToPoint())
	}
	rt.size++
}

func (rt *Rtree[T]) Len() int {
	return rt.size
}

// Bound of all indexed entries. zero bound when empty.
func (rt *Rtree[T]) Bound() orb.Bound {
	return rt.bound
}

// SearchBound returns exactly the entries whose (x,y) lies inside b, boundaries included, ordered by x then y.
func (rt *Rtree[T]) SearchBound(b orb.Bound) []XYObject[T] {
	results := make([]XYObject[T], 0, 10)
	rt.tr.Search([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]},
		func(min, max [2]float64, data XYObject[T]) bool {
			if b.Contains(data.ToPoint()) {
				results = append(results, data)
			}
			return true
		})
	SortXY(results)
	return results
}

// SearchWithinRadius returns the entries within radius of p under the index distance function, nearest first.
func (rt *Rtree[T]) SearchWithinRadius(p orb.Point, radius float64) []XYObject[T] {
	candidates := rt.SearchBound(rt.df.BoundAround(p, radius))
	results := make([]XYObject[T], 0, len(candidates))
	for _, c := range candidates {
		if rt.df.Distance(p, c.ToPoint()) <= radius {
			results = append(results, c)
		}
	}
	rt.sortByDistance(p, results)
	return results
}

// Nearest returns up to k entries closest to p. the search radius doubles until k entries are found or the
// whole index is covered.
func (rt *Rtree[T]) Nearest(p orb.Point, k int) []XYObject[T] {
	if rt.size == 0 || k <= 0 {
		return nil
	}

	radius := rt.initialRadius(p)
	for i := 0; i < maxNearestExpansions; i++ {
		results := rt.SearchWithinRadius(p, radius)
		if len(results) >= k {
			return results[:k]
		}
		if len(results) == rt.size {
			return results
		}
		radius *= 2
	}

	all := rt.SearchBound(rt.bound)
	rt.sortByDistance(p, all)
	return all[:util.MinInt(k, len(all))]
}

func (rt *Rtree[T]) initialRadius(p orb.Point) float64 {
	diag := rt.df.Distance(rt.bound.Min, rt.bound.Max)
	radius := diag / math.Sqrt(float64(rt.size))
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		radius = math.Max(rt.df.Distance(p, rt.bound.Center()), 1)
	}
	return radius
}

func (rt *Rtree[T]) sortByDistance(p orb.Point, objs []XYObject[T]) {
	slices.SortStableFunc(objs, func(a, b XYObject[T]) int {
		da := rt.df.Distance(p, a.ToPoint())
		db := rt.df.Distance(p, b.ToPoint())
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
}

// SortXY sorts entries by x, entries with equal x keep y order. both passes are stable.
func SortXY[T any](objs []XYObject[T]) {
	slices.SortStableFunc(objs, CompareY[T])
	slices.SortStableFunc(objs, CompareX[T])
}
