package datastructure

import (
	"sort"
	"sync"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/spatialindex"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// RoadNetworkGraph owns every node and way of a road network. nodes and ways reference each other by ID.
// mutations are single-writer; concurrent readers are safe once construction is done.
type RoadNetworkGraph struct {
	df    geo.DistanceFunction
	nodes map[string]*RoadNode
	ways  map[string]*RoadWay

	indexMu   sync.Mutex
	nodeIndex *spatialindex.Rtree[string]
}

type GraphStats struct {
	Nodes         int
	Ways          int
	Intersections int // degree > 2
	DeadEnds      int // degree == 1
	TotalLength   float64
}

func NewRoadNetworkGraph(df geo.DistanceFunction) *RoadNetworkGraph {
	return &RoadNetworkGraph{
		df:    df,
		nodes: make(map[string]*RoadNode),
		ways:  make(map[string]*RoadWay),
	}
}

func (g *RoadNetworkGraph) DistanceFunction() geo.DistanceFunction {
	return g.df
}

func (g *RoadNetworkGraph) AddNode(node *RoadNode) error {
	if _, exists := g.nodes[node.ID()]; exists {
		return util.WrapErrorf(nil, util.ErrMalformedGraph, "duplicate road node id %s", node.ID())
	}
	node.clearConnectedWays()
	g.nodes[node.ID()] = node
	g.invalidateIndex()
	return nil
}

// AddWay inserts way and registers it as outgoing on its first node and incoming on its last node.
func (g *RoadNetworkGraph) AddWay(way *RoadWay) error {
	if _, exists := g.ways[way.ID()]; exists {
		return util.WrapErrorf(nil, util.ErrMalformedGraph, "duplicate road way id %s", way.ID())
	}
	if way.NumberOfNodes() < 2 {
		return util.WrapErrorf(nil, util.ErrMalformedGraph, "road way %s has %d vertices, need at least 2",
			way.ID(), way.NumberOfNodes())
	}
	for _, nodeID := range way.nodeIDs {
		if _, ok := g.nodes[nodeID]; !ok {
			return util.WrapErrorf(nil, util.ErrMalformedGraph, "road way %s references unknown node %s", way.ID(), nodeID)
		}
	}

	way.length = g.wayLength(way)
	g.ways[way.ID()] = way
	g.nodes[way.FromNodeID()].addOutGoingWay(way.ID())
	g.nodes[way.ToNodeID()].addInComingWay(way.ID())
	return nil
}

// RemoveWay deletes the way and its back-references on both endpoints.
func (g *RoadNetworkGraph) RemoveWay(wayID string) error {
	way, ok := g.ways[wayID]
	if !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "road way %s not found", wayID)
	}
	from, okFrom := g.nodes[way.FromNodeID()]
	to, okTo := g.nodes[way.ToNodeID()]
	if !okFrom || !okTo {
		return util.WrapErrorf(nil, util.ErrInvariantViolation, "road way %s has a missing endpoint", wayID)
	}
	from.removeOutGoingWay(wayID)
	to.removeInComingWay(wayID)
	delete(g.ways, wayID)
	return nil
}

// RemoveNode deletes the node together with every way passing through it.
func (g *RoadNetworkGraph) RemoveNode(nodeID string) error {
	if _, ok := g.nodes[nodeID]; !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "road node %s not found", nodeID)
	}
	for _, wayID := range g.waysContaining(nodeID) {
		if err := g.RemoveWay(wayID); err != nil {
			return err
		}
	}
	delete(g.nodes, nodeID)
	g.invalidateIndex()
	return nil
}

// ClearConnectedWays removes every way that starts or ends at the node and returns their IDs.
func (g *RoadNetworkGraph) ClearConnectedWays(nodeID string) ([]string, error) {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "road node %s not found", nodeID)
	}
	connected := make(map[string]struct{}, node.Degree())
	for id := range node.inComingWays {
		connected[id] = struct{}{}
	}
	for id := range node.outGoingWays {
		connected[id] = struct{}{}
	}
	removed := sortedKeys(connected)
	for _, wayID := range removed {
		if err := g.RemoveWay(wayID); err != nil {
			return nil, err
		}
	}
	node.clearConnectedWays()
	return removed, nil
}

// RemoveInComingWay drops an incoming way of the node. the way leaves the graph with its back-reference.
func (g *RoadNetworkGraph) RemoveInComingWay(nodeID, wayID string) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "road node %s not found", nodeID)
	}
	if !node.HasInComingWay(wayID) {
		return util.WrapErrorf(nil, util.ErrNotFound, "road way %s is not incoming to node %s", wayID, nodeID)
	}
	return g.RemoveWay(wayID)
}

// SetNodeLocation moves a node and refreshes the cached length of every way through it.
func (g *RoadNetworkGraph) SetNodeLocation(nodeID string, lon, lat float64) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "road node %s not found", nodeID)
	}
	node.lon = lon
	node.lat = lat
	for _, wayID := range g.waysContaining(nodeID) {
		way := g.ways[wayID]
		way.length = g.wayLength(way)
	}
	g.invalidateIndex()
	return nil
}

func (g *RoadNetworkGraph) GetNode(nodeID string) (*RoadNode, bool) {
	node, ok := g.nodes[nodeID]
	return node, ok
}

func (g *RoadNetworkGraph) GetWay(wayID string) (*RoadWay, bool) {
	way, ok := g.ways[wayID]
	return way, ok
}

func (g *RoadNetworkGraph) NumberOfNodes() int {
	return len(g.nodes)
}

func (g *RoadNetworkGraph) NumberOfWays() int {
	return len(g.ways)
}

// Nodes returns all nodes ordered by ID.
func (g *RoadNetworkGraph) Nodes() []*RoadNode {
	nodes := make([]*RoadNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID() < nodes[j].ID()
	})
	return nodes
}

// Ways returns all ways ordered by ID.
func (g *RoadNetworkGraph) Ways() []*RoadWay {
	ways := make([]*RoadWay, 0, len(g.ways))
	for _, w := range g.ways {
		ways = append(ways, w)
	}
	sort.Slice(ways, func(i, j int) bool {
		return ways[i].ID() < ways[j].ID()
	})
	return ways
}

func (g *RoadNetworkGraph) waysContaining(nodeID string) []string {
	ids := make([]string, 0)
	for id, way := range g.ways {
		if way.containsNode(nodeID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (g *RoadNetworkGraph) wayLength(way *RoadWay) float64 {
	length := 0.0
	for i := 1; i < len(way.nodeIDs); i++ {
		length += g.df.Distance(g.nodes[way.nodeIDs[i-1]].ToPoint(), g.nodes[way.nodeIDs[i]].ToPoint())
	}
	return length
}

// WayGeometry returns the vertex coordinates of a way as (x, y) points.
func (g *RoadNetworkGraph) WayGeometry(wayID string) (orb.LineString, bool) {
	way, ok := g.ways[wayID]
	if !ok {
		return nil, false
	}
	ls := make(orb.LineString, 0, len(way.nodeIDs))
	for _, nodeID := range way.nodeIDs {
		ls = append(ls, g.nodes[nodeID].ToPoint())
	}
	return ls, true
}

// WayBearing is the heading from the first to the last vertex of a way.
func (g *RoadNetworkGraph) WayBearing(wayID string) (float64, error) {
	way, ok := g.ways[wayID]
	if !ok {
		return 0, util.WrapErrorf(nil, util.ErrNotFound, "road way %s not found", wayID)
	}
	from, to := g.nodes[way.FromNodeID()], g.nodes[way.ToNodeID()]
	if from == nil || to == nil {
		return 0, util.WrapErrorf(nil, util.ErrMalformedGraph, "road way %s has no vertices", wayID)
	}
	return g.df.Bearing(from.ToPoint(), to.ToPoint()), nil
}

// WayPolyline encodes the geometry of a way as a google polyline (lat, lon order).
func (g *RoadNetworkGraph) WayPolyline(wayID string) (string, error) {
	ls, ok := g.WayGeometry(wayID)
	if !ok {
		return "", util.WrapErrorf(nil, util.ErrNotFound, "road way %s not found", wayID)
	}
	return encodePolyline(ls), nil
}

func encodePolyline(ls orb.LineString) string {
	coords := make([][]float64, len(ls))
	for i, p := range ls {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}

func (g *RoadNetworkGraph) Bound() orb.Bound {
	points := make(orb.MultiPoint, 0, len(g.nodes))
	for _, n := range g.nodes {
		points = append(points, n.ToPoint())
	}
	return points.Bound()
}

func (g *RoadNetworkGraph) invalidateIndex() {
	g.indexMu.Lock()
	g.nodeIndex = nil
	g.indexMu.Unlock()
}

func (g *RoadNetworkGraph) index() *spatialindex.Rtree[string] {
	g.indexMu.Lock()
	defer g.indexMu.Unlock()
	if g.nodeIndex == nil {
		rt := spatialindex.NewRtree[string](g.df)
		for id, n := range g.nodes {
			rt.Insert(spatialindex.NewXYObject(n.lon, n.lat, id))
		}
		g.nodeIndex = rt
	}
	return g.nodeIndex
}

func (g *RoadNetworkGraph) nodesOf(objs []spatialindex.XYObject[string]) []*RoadNode {
	nodes := make([]*RoadNode, 0, len(objs))
	for _, obj := range objs {
		id, _ := obj.Payload()
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodesWithin returns the nodes inside b, boundaries included, ordered by lon then lat.
func (g *RoadNetworkGraph) NodesWithin(b orb.Bound) []*RoadNode {
	return g.nodesOf(g.index().SearchBound(b))
}

// NodesWithinRadius returns nodes within radius of p, nearest first.
func (g *RoadNetworkGraph) NodesWithinRadius(p orb.Point, radius float64) []*RoadNode {
	return g.nodesOf(g.index().SearchWithinRadius(p, radius))
}

func (g *RoadNetworkGraph) NearestNodes(p orb.Point, k int) []*RoadNode {
	return g.nodesOf(g.index().Nearest(p, k))
}

// CheckConsistency verifies both directions of the node/way back-references.
func (g *RoadNetworkGraph) CheckConsistency() error {
	for _, node := range g.nodes {
		for wayID := range node.inComingWays {
			way, ok := g.ways[wayID]
			if !ok || way.ToNodeID() != node.ID() {
				return util.WrapErrorf(nil, util.ErrInvariantViolation,
					"node %s lists incoming way %s that does not end at it", node.ID(), wayID)
			}
		}
		for wayID := range node.outGoingWays {
			way, ok := g.ways[wayID]
			if !ok || way.FromNodeID() != node.ID() {
				return util.WrapErrorf(nil, util.ErrInvariantViolation,
					"node %s lists outgoing way %s that does not start at it", node.ID(), wayID)
			}
		}
	}
	for _, way := range g.ways {
		for _, nodeID := range way.nodeIDs {
			if _, ok := g.nodes[nodeID]; !ok {
				return util.WrapErrorf(nil, util.ErrInvariantViolation, "way %s references missing node %s", way.ID(), nodeID)
			}
		}
		if !g.nodes[way.FromNodeID()].HasOutGoingWay(way.ID()) || !g.nodes[way.ToNodeID()].HasInComingWay(way.ID()) {
			return util.WrapErrorf(nil, util.ErrInvariantViolation, "way %s is not registered on its endpoints", way.ID())
		}
	}
	return nil
}

func (g *RoadNetworkGraph) Stats() GraphStats {
	stats := GraphStats{
		Nodes: len(g.nodes),
		Ways:  len(g.ways),
	}
	for _, n := range g.nodes {
		switch d := n.Degree(); {
		case d > 2:
			stats.Intersections++
		case d == 1:
			stats.DeadEnds++
		}
	}
	for _, w := range g.ways {
		stats.TotalLength += w.length
	}
	return stats
}
