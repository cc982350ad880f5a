package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestBearing(t *testing.T) {
	gc := NewGreatCircleDistanceFunction()
	eu := NewEuclideanDistanceFunction()

	testCases := []struct {
		name string
		df   DistanceFunction
		a, b orb.Point
		want float64
	}{
		{name: "planar north", df: eu, a: orb.Point{0, 0}, b: orb.Point{0, 5}, want: 0},
		{name: "planar east", df: eu, a: orb.Point{0, 0}, b: orb.Point{3, 0}, want: 90},
		{name: "planar south", df: eu, a: orb.Point{1, 1}, b: orb.Point{1, -4}, want: 180},
		{name: "planar north west", df: eu, a: orb.Point{0, 0}, b: orb.Point{-1, 1}, want: 315},
		{name: "sphere north", df: gc, a: orb.Point{116.4, 39.9}, b: orb.Point{116.4, 40.9}, want: 0},
		{name: "sphere east on equator", df: gc, a: orb.Point{0, 0}, b: orb.Point{1, 0}, want: 90},
		{name: "sphere west across antimeridian", df: gc, a: orb.Point{-179.5, 0}, b: orb.Point{179.5, 0}, want: 270},
		{name: "sphere south", df: gc, a: orb.Point{10, 60}, b: orb.Point{10, 59}, want: 180},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.df.Bearing(tt.a, tt.b), 1e-9)
		})
	}

	// eastward at high latitude the great-circle heading starts north of east
	assert.Less(t, gc.Bearing(orb.Point{0, 60}, orb.Point{10, 60}), 90.0)
}

func TestBearingRange(t *testing.T) {
	rd := rand.New(rand.NewSource(7))
	for _, df := range []DistanceFunction{NewEuclideanDistanceFunction(), NewGreatCircleDistanceFunction()} {
		for i := 0; i < 500; i++ {
			a := orb.Point{rd.Float64()*360 - 180, rd.Float64()*170 - 85}
			b := orb.Point{rd.Float64()*360 - 180, rd.Float64()*170 - 85}
			got := df.Bearing(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		}
	}
}

func TestBearingDifference(t *testing.T) {
	assert.InDelta(t, 20.0, BearingDifference(350, 10), 1e-9)
	assert.InDelta(t, 20.0, BearingDifference(10, 350), 1e-9)
	assert.InDelta(t, 180.0, BearingDifference(0, 180), 1e-9)
	assert.InDelta(t, 0.0, BearingDifference(-90, 270), 1e-9)
	assert.InDelta(t, 45.0, BearingDifference(720, 45), 1e-9)
}
