package datastructure

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/spatialindex"
	"github.com/paulmach/orb"
)

// TrajectoryPoint is an immutable timestamped sample. time is in seconds.
type TrajectoryPoint struct {
	x, y float64
	time int64
	df   geo.DistanceFunction
}

func NewTrajectoryPoint(x, y float64, time int64, df geo.DistanceFunction) TrajectoryPoint {
	return TrajectoryPoint{x: x, y: y, time: time, df: df}
}

func (p TrajectoryPoint) X() float64 {
	return p.x
}

func (p TrajectoryPoint) Y() float64 {
	return p.y
}

func (p TrajectoryPoint) Time() int64 {
	return p.time
}

func (p TrajectoryPoint) ToPoint() orb.Point {
	return orb.Point{p.x, p.y}
}

func (p TrajectoryPoint) DistanceFunction() geo.DistanceFunction {
	return p.df
}

func (p TrajectoryPoint) DistanceTo(other TrajectoryPoint) float64 {
	return p.df.Distance(p.ToPoint(), other.ToPoint())
}

// HeadingTo is the bearing from p to other in degrees, clockwise from north.
func (p TrajectoryPoint) HeadingTo(other TrajectoryPoint) float64 {
	return p.df.Bearing(p.ToPoint(), other.ToPoint())
}

func (p TrajectoryPoint) String() string {
	return strconv.FormatFloat(p.x, 'f', -1, 64) + " " + strconv.FormatFloat(p.y, 'f', -1, 64) + " " +
		strconv.FormatInt(p.time, 10)
}

// ParseTrajectoryPoint parses "x y timestamp [...]". columns after the timestamp (speed, heading) are ignored.
func ParseTrajectoryPoint(s string, df geo.DistanceFunction) (TrajectoryPoint, error) {
	ff := strings.Fields(s)
	if len(ff) < 3 {
		return TrajectoryPoint{}, fmt.Errorf("trajectory point needs at least 3 fields, got %d: %q", len(ff), s)
	}
	x, err := strconv.ParseFloat(ff[0], 64)
	if err != nil {
		return TrajectoryPoint{}, fmt.Errorf("invalid x %q: %w", ff[0], err)
	}
	y, err := strconv.ParseFloat(ff[1], 64)
	if err != nil {
		return TrajectoryPoint{}, fmt.Errorf("invalid y %q: %w", ff[1], err)
	}
	t, err := strconv.ParseInt(ff[2], 10, 64)
	if err != nil {
		// some datasets write the timestamp as a float
		tf, ferr := strconv.ParseFloat(ff[2], 64)
		if ferr != nil {
			return TrajectoryPoint{}, fmt.Errorf("invalid timestamp %q: %w", ff[2], err)
		}
		// NaN fails both comparisons
		if !(tf >= math.MinInt64 && tf < math.MaxInt64) {
			return TrajectoryPoint{}, fmt.Errorf("timestamp %q out of range", ff[2])
		}
		t = int64(tf)
	}
	return NewTrajectoryPoint(x, y, t, df), nil
}

// Trajectory is an ordered sequence of points bound to one distance function.
type Trajectory struct {
	id     string
	points []TrajectoryPoint
	df     geo.DistanceFunction
}

func NewTrajectory(id string, df geo.DistanceFunction) *Trajectory {
	return &Trajectory{
		id:     id,
		points: make([]TrajectoryPoint, 0),
		df:     df,
	}
}

func NewTrajectoryFromPoints(id string, points []TrajectoryPoint, df geo.DistanceFunction) *Trajectory {
	pts := make([]TrajectoryPoint, len(points))
	copy(pts, points)
	return &Trajectory{id: id, points: pts, df: df}
}

func (t *Trajectory) ID() string {
	return t.id
}

func (t *Trajectory) DistanceFunction() geo.DistanceFunction {
	return t.df
}

func (t *Trajectory) Add(p TrajectoryPoint) {
	t.points = append(t.points, p)
}

func (t *Trajectory) Len() int {
	return len(t.points)
}

func (t *Trajectory) Get(i int) TrajectoryPoint {
	return t.points[i]
}

func (t *Trajectory) Points() []TrajectoryPoint {
	pts := make([]TrajectoryPoint, len(t.points))
	copy(pts, t.points)
	return pts
}

// Subset returns a trajectory with the same id and metric holding the points at indices, in the given order.
func (t *Trajectory) Subset(indices []int) *Trajectory {
	pts := make([]TrajectoryPoint, len(indices))
	for i, idx := range indices {
		pts[i] = t.points[idx]
	}
	return &Trajectory{id: t.id, points: pts, df: t.df}
}

func (t *Trajectory) LineString() orb.LineString {
	ls := make(orb.LineString, len(t.points))
	for i, p := range t.points {
		ls[i] = p.ToPoint()
	}
	return ls
}

func (t *Trajectory) Bound() orb.Bound {
	return t.LineString().Bound()
}

// Length sums the distance between consecutive points.
func (t *Trajectory) Length() float64 {
	length := 0.0
	for i := 1; i < len(t.points); i++ {
		length += t.points[i-1].DistanceTo(t.points[i])
	}
	return length
}

// Duration in seconds between the first and the last point.
// Headings returns the bearing of each of the Len()-1 legs. empty for fewer than two points.
func (t *Trajectory) Headings() []float64 {
	if len(t.points) < 2 {
		return []float64{}
	}
	headings := make([]float64, len(t.points)-1)
	for i := 1; i < len(t.points); i++ {
		headings[i-1] = t.points[i-1].HeadingTo(t.points[i])
	}
	return headings
}

func (t *Trajectory) Duration() int64 {
	if len(t.points) == 0 {
		return 0
	}
	return t.points[len(t.points)-1].time - t.points[0].time
}

// EncodePolyline encodes the trajectory as a google polyline, treating x as lon and y as lat.
func (t *Trajectory) EncodePolyline() string {
	return encodePolyline(t.LineString())
}

// PointIndex indexes the points of the trajectory by position; the payload is the point index.
func (t *Trajectory) PointIndex() *spatialindex.Rtree[int] {
	rt := spatialindex.NewRtree[int](t.df)
	for i, p := range t.points {
		rt.Insert(spatialindex.NewXYObject(p.x, p.y, i))
	}
	return rt
}
