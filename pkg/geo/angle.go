package geo

import (
	"math"

	"github.com/money-shredder/map-service/pkg/util"
	"github.com/paulmach/orb"
)

/*
BearingTo. initial bearing in degrees [0, 360) of the great-circle path from (p1Lat, p1Lon) to (p2Lat, p2Lon),
clockwise from north.
https://www.movable-type.co.uk/scripts/latlong.html
*/
func BearingTo(p1Lat, p1Lon, p2Lat, p2Lon float64) float64 {
	dLon := util.DegreeToRadians(p2Lon - p1Lon)

	lat1 := util.DegreeToRadians(p1Lat)
	lat2 := util.DegreeToRadians(p2Lat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return normalizeBearing(util.RadiansToDegree(math.Atan2(y, x)))
}

// PlanarBearing is the angle of b seen from a, clockwise from the +y axis, in degrees [0, 360).
func PlanarBearing(a, b orb.Point) float64 {
	return normalizeBearing(util.RadiansToDegree(math.Atan2(b[0]-a[0], b[1]-a[1])))
}

// BearingDifference is the smallest absolute angle between two bearings, in [0, 180].
func BearingDifference(b1, b2 float64) float64 {
	d := math.Abs(normalizeBearing(b1) - normalizeBearing(b2))
	if d > 180 {
		d = 360 - d
	}
	return d
}

func normalizeBearing(deg float64) float64 {
	b := math.Mod(deg+360, 360.0)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b -= 360
	}
	return b
}

func (EuclideanDistanceFunction) Bearing(a, b orb.Point) float64 {
	return PlanarBearing(a, b)
}

func (GreatCircleDistanceFunction) Bearing(a, b orb.Point) float64 {
	return BearingTo(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}
