package datastructure

import (
	"testing"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *RoadNetworkGraph {
	t.Helper()
	df := geo.NewEuclideanDistanceFunction()
	g := NewRoadNetworkGraph(df)
	require.NoError(t, g.AddNode(NewRoadNode("A", 0, 0, df)))
	require.NoError(t, g.AddNode(NewRoadNode("B", 3, 4, df)))
	require.NoError(t, g.AddNode(NewRoadNode("C", 3, 0, df)))
	require.NoError(t, g.AddNode(NewRoadNode("D", 10, 10, df)))
	return g
}

func TestAddRemoveWayBackReferences(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()

	w := NewRoadWay("w1", []string{"A", "B"}, true, df)
	require.NoError(t, g.AddWay(w))

	a, _ := g.GetNode("A")
	b, _ := g.GetNode("B")
	assert.Equal(t, []string{"w1"}, a.OutGoingWays())
	assert.Empty(t, a.InComingWays())
	assert.Equal(t, []string{"w1"}, b.InComingWays())
	assert.Empty(t, b.OutGoingWays())
	assert.Equal(t, 1, a.Degree())
	assert.InDelta(t, 5.0, w.Length(), 1e-9)
	require.NoError(t, g.CheckConsistency())

	require.NoError(t, g.RemoveWay("w1"))
	assert.Empty(t, a.OutGoingWays())
	assert.Empty(t, b.InComingWays())
	assert.Equal(t, 0, g.NumberOfWays())
	require.NoError(t, g.CheckConsistency())

	err := g.RemoveWay("w1")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestAddWayErrors(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "C", "B"}, false, df)))

	testCases := []struct {
		name string
		way  *RoadWay
	}{
		{name: "unknown node", way: NewRoadWay("w2", []string{"A", "Z"}, false, df)},
		{name: "duplicate id", way: NewRoadWay("w1", []string{"A", "B"}, false, df)},
		{name: "single vertex", way: NewRoadWay("w3", []string{"A"}, false, df)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddWay(tt.way)
			assert.ErrorIs(t, err, util.ErrMalformedGraph)
		})
	}

	// failed adds must not leave any back-reference behind
	require.NoError(t, g.CheckConsistency())
	a, _ := g.GetNode("A")
	assert.Equal(t, []string{"w1"}, a.OutGoingWays())

	err := g.AddNode(NewRoadNode("A", 1, 1, df))
	assert.ErrorIs(t, err, util.ErrMalformedGraph)
}

func TestRemoveNodeRemovesThroughWays(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "C", "B"}, false, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w2", []string{"B", "D"}, false, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w3", []string{"D", "A"}, false, df)))

	// C is an intermediate vertex of w1 only
	require.NoError(t, g.RemoveNode("C"))
	_, ok := g.GetWay("w1")
	assert.False(t, ok)
	b, _ := g.GetNode("B")
	assert.Empty(t, b.InComingWays())
	assert.Equal(t, []string{"w2"}, b.OutGoingWays())
	require.NoError(t, g.CheckConsistency())

	assert.ErrorIs(t, g.RemoveNode("C"), util.ErrNotFound)
}

func TestClearConnectedWays(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "B"}, false, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w2", []string{"B", "D"}, false, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w3", []string{"C", "D"}, false, df)))

	removed, err := g.ClearConnectedWays("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2"}, removed)
	b, _ := g.GetNode("B")
	assert.Equal(t, 0, b.Degree())
	d, _ := g.GetNode("D")
	assert.Equal(t, []string{"w3"}, d.InComingWays())
	require.NoError(t, g.CheckConsistency())
}

func TestRemoveInComingWay(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "B"}, false, df)))

	assert.ErrorIs(t, g.RemoveInComingWay("A", "w1"), util.ErrNotFound)
	require.NoError(t, g.RemoveInComingWay("B", "w1"))
	a, _ := g.GetNode("A")
	assert.Equal(t, 0, a.Degree())
	require.NoError(t, g.CheckConsistency())
}

func TestSetNodeLocationUpdatesLength(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	w := NewRoadWay("w1", []string{"A", "C"}, false, df)
	require.NoError(t, g.AddWay(w))
	assert.InDelta(t, 3.0, w.Length(), 1e-9)

	require.NoError(t, g.SetNodeLocation("C", 6, 8))
	assert.InDelta(t, 10.0, w.Length(), 1e-9)

	nodes := g.NodesWithin(orb.Bound{Min: orb.Point{5, 7}, Max: orb.Point{6, 8}})
	require.Len(t, nodes, 1)
	assert.Equal(t, "C", nodes[0].ID())
}

func TestSpatialQueries(t *testing.T) {
	g := newTestGraph(t)

	// boundaries are inclusive
	nodes := g.NodesWithin(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{3, 4}})
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	assert.Equal(t, []string{"A", "C", "B"}, ids)

	nearest := g.NearestNodes(orb.Point{9, 9}, 1)
	require.Len(t, nearest, 1)
	assert.Equal(t, "D", nearest[0].ID())

	within := g.NodesWithinRadius(orb.Point{0, 0}, 3)
	require.Len(t, within, 2)
	assert.Equal(t, "A", within[0].ID())
	assert.Equal(t, "C", within[1].ID())
}

func TestCheckConsistencyDetectsDanglingReference(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "B"}, false, df)))

	a, _ := g.GetNode("A")
	a.addInComingWay("w1")
	assert.ErrorIs(t, g.CheckConsistency(), util.ErrInvariantViolation)
}

func TestStatsAndPolyline(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "B"}, false, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w2", []string{"B", "C"}, false, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w3", []string{"B", "D"}, false, df)))

	stats := g.Stats()
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 3, stats.Ways)
	assert.Equal(t, 1, stats.Intersections)
	assert.Equal(t, 3, stats.DeadEnds)
	assert.InDelta(t, 5+4+g.DistanceFunction().Distance(orb.Point{3, 4}, orb.Point{10, 10}), stats.TotalLength, 1e-9)

	encoded, err := g.WayPolyline("w1")
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	_, err = g.WayPolyline("missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestNodeTypeAndClone(t *testing.T) {
	df := geo.NewEuclideanDistanceFunction()
	n, err := NewRoadNodeWithTags("n1", 1, 2, map[string]string{"nodeType": "3", "highway": "traffic_signals"}, df)
	require.NoError(t, err)
	assert.Equal(t, IntersectionMainNode, n.NodeType())
	_, hasTypeTag := n.Tag("nodeType")
	assert.False(t, hasTypeTag)

	n.addOutGoingWay("w1")
	clone := n.Clone()
	assert.True(t, clone.Equal(n))
	assert.Equal(t, 0, clone.Degree())
	assert.Equal(t, n.Tags(), clone.Tags())

	assert.Equal(t, NodeTypeNull, NewRoadNode("n2", 0, 0, df).NodeType())
	_, err = NewRoadNodeWithTags("n3", 0, 0, map[string]string{"nodeType": "9"}, df)
	assert.Error(t, err)
}

func TestWayBearing(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()
	// A(0,0) -> C(3,0) -> B(3,4): heading of the chord A->B
	require.NoError(t, g.AddWay(NewRoadWay("w1", []string{"A", "C", "B"}, true, df)))
	require.NoError(t, g.AddWay(NewRoadWay("w2", []string{"C", "A"}, true, df)))

	got, err := g.WayBearing("w1")
	require.NoError(t, err)
	assert.InDelta(t, 36.8699, got, 1e-4)

	got, err = g.WayBearing("w2")
	require.NoError(t, err)
	assert.InDelta(t, 270.0, got, 1e-9)

	_, err = g.WayBearing("missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
}
