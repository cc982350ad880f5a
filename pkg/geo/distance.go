package geo

import (
	"math"
	"strings"

	"github.com/money-shredder/map-service/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DistanceFunction is the metric used by every geometric computation. Points are (x, y), which is (lon, lat)
// for raw GPS datasets.
type DistanceFunction interface {
	Distance(a, b orb.Point) float64
	// PointToSegmentDistance returns the distance from p to the closest point of segment ab.
	PointToSegmentDistance(p, a, b orb.Point) float64
	// BoundAround returns a box containing every point within radius of p.
	BoundAround(p orb.Point, radius float64) orb.Bound
	// Bearing is the heading from a to b in degrees [0, 360), clockwise from north (+y).
	Bearing(a, b orb.Point) float64
	Name() string
}

const (
	EuclideanName   = "euclidean"
	GreatCircleName = "greatcircle"
)

// EuclideanDistanceFunction is the planar metric for projected or local coordinate datasets.
type EuclideanDistanceFunction struct{}

func NewEuclideanDistanceFunction() EuclideanDistanceFunction {
	return EuclideanDistanceFunction{}
}

func (EuclideanDistanceFunction) Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

func (EuclideanDistanceFunction) PointToSegmentDistance(p, a, b orb.Point) float64 {
	return planar.DistanceFromSegment(a, b, p)
}

func (EuclideanDistanceFunction) BoundAround(p orb.Point, radius float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{p[0] - radius, p[1] - radius},
		Max: orb.Point{p[0] + radius, p[1] + radius},
	}
}

func (EuclideanDistanceFunction) Name() string {
	return EuclideanName
}

// GreatCircleDistanceFunction measures haversine distance in meters between (lon, lat) points.
type GreatCircleDistanceFunction struct{}

func NewGreatCircleDistanceFunction() GreatCircleDistanceFunction {
	return GreatCircleDistanceFunction{}
}

func (GreatCircleDistanceFunction) Distance(a, b orb.Point) float64 {
	return CalculateHaversineDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon()) * 1000
}

func (gc GreatCircleDistanceFunction) PointToSegmentDistance(p, a, b orb.Point) float64 {
	if a == b {
		return gc.Distance(p, a)
	}
	projection := ProjectPointToSegment(a, b, p)
	return gc.Distance(p, projection)
}

// BoundAround returns the smallest lon/lat box holding the spherical cap of radius meters around p. when the
// cap reaches a pole or crosses the antimeridian the box spans every longitude.
func (GreatCircleDistanceFunction) BoundAround(p orb.Point, radius float64) orb.Bound {
	// angular radius, padded so points on the circle survive rounding
	r := radius / 1000 / earthRadiusKM * (1 + 1e-9)
	lat := util.DegreeToRadians(p.Lat())
	lon := util.DegreeToRadians(p.Lon())

	minLat, maxLat := lat-r, lat+r
	minLon, maxLon := -math.Pi, math.Pi
	if minLat > -math.Pi/2 && maxLat < math.Pi/2 {
		dLon := math.Asin(math.Min(math.Sin(r)/math.Cos(lat), 1))
		if lon-dLon >= -math.Pi && lon+dLon <= math.Pi {
			minLon, maxLon = lon-dLon, lon+dLon
		}
	} else {
		minLat = math.Max(minLat, -math.Pi/2)
		maxLat = math.Min(maxLat, math.Pi/2)
	}

	return orb.Bound{
		Min: orb.Point{util.RadiansToDegree(minLon), util.RadiansToDegree(minLat)},
		Max: orb.Point{util.RadiansToDegree(maxLon), util.RadiansToDegree(maxLat)},
	}
}

func (GreatCircleDistanceFunction) Name() string {
	return GreatCircleName
}

// DistanceFunctionFor picks the metric once per run. An explicit name wins, otherwise raw lon/lat datasets
// (Beijing) get great-circle distance and everything else is treated as projected.
func DistanceFunctionFor(name, dataset string) DistanceFunction {
	switch name {
	case EuclideanName:
		return NewEuclideanDistanceFunction()
	case GreatCircleName:
		return NewGreatCircleDistanceFunction()
	}
	if strings.Contains(dataset, "Beijing") {
		return NewGreatCircleDistanceFunction()
	}
	return NewEuclideanDistanceFunction()
}

const (
	earthRadiusKM = 6371.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// CalculateHaversineDistance. calculate haversine distance in km
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = util.DegreeToRadians(latOne)
	longOne = util.DegreeToRadians(longOne)
	latTwo = util.DegreeToRadians(latTwo)
	longTwo = util.DegreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(math.Min(a, 1)))
	return earthRadiusKM * c
}

// GetDestinationPoint returns the destination point given the starting point, bearing and distance
// dist in km
func GetDestinationPoint(lat1, lon1 float64, bearing float64, dist float64) (float64, float64) {

	dr := dist / earthRadiusKM

	bearing = util.DegreeToRadians(bearing)

	lat1 = util.DegreeToRadians(lat1)
	lon1 = util.DegreeToRadians(lon1)

	lat2Part1 := math.Sin(lat1) * math.Cos(dr)
	lat2Part2 := math.Cos(lat1) * math.Sin(dr) * math.Cos(bearing)

	lat2 := math.Asin(lat2Part1 + lat2Part2)

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat1)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat1) * math.Sin(lat2))

	lon2 := lon1 + math.Atan2(lon2Part1, lon2Part2)

	return util.RadiansToDegree(lat2), normalizeLongitude(util.RadiansToDegree(lon2))
}

// normalizeLongitude. long in degree
func normalizeLongitude(long float64) float64 {
	return math.Mod((long+540), 360) - 180.0
}
