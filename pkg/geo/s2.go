package geo

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// ProjectPointToSegment returns the point of the great-circle edge ab closest to snap. all points are (lon, lat).
func ProjectPointToSegment(pointA, pointB, snap orb.Point) orb.Point {
	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat(), pointA.Lon()))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat(), pointB.Lon()))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat(), snap.Lon()))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return orb.Point{projectLatLng.Lng.Degrees(), projectLatLng.Lat.Degrees()}
}
