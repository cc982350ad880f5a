package osmparser

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/money-shredder/map-service/pkg/datastructure"
	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"
)

const reverseWayPrefix = "-"

type wayNodeRole int8

const (
	endNode wayNodeRole = iota
	betweenNode
	junctionNode
)

// keptWayTags are copied from an OpenStreetMap way onto the road ways built from it.
var keptWayTags = []string{"highway", "name", "maxspeed", "junction", "lanes"}

// OsmParser builds a RoadNetworkGraph from the drivable ways of an OpenStreetMap extract. every accepted way
// becomes one road way; a two-way street also gets a reversed copy whose id is prefixed with "-".
type OsmParser struct {
	df         geo.DistanceFunction
	log        *zap.Logger
	wayNodeMap map[osm.NodeID]wayNodeRole
	ways       []*osm.Way
	nodes      map[osm.NodeID]*osm.Node
}

func NewOsmParser(df geo.DistanceFunction, log *zap.Logger) *OsmParser {
	return &OsmParser{
		df:         df,
		log:        log,
		wayNodeMap: make(map[osm.NodeID]wayNodeRole),
		ways:       make([]*osm.Way, 0),
		nodes:      make(map[osm.NodeID]*osm.Node),
	}
}

// ImportRoadNetwork reads a ".pbf" or ".osm" xml extract into a road network.
func ImportRoadNetwork(ctx context.Context, mapFile string, df geo.DistanceFunction,
	log *zap.Logger) (*datastructure.RoadNetworkGraph, error) {
	return NewOsmParser(df, log).Parse(ctx, mapFile)
}

func (p *OsmParser) Parse(ctx context.Context, mapFile string) (*datastructure.RoadNetworkGraph, error) {
	// ways reference nodes stored earlier in the file, so the first pass only collects the referenced node ids
	if err := p.scan(ctx, mapFile, func(o osm.Object) {
		if way, ok := o.(*osm.Way); ok {
			p.collectWay(way)
		}
	}); err != nil {
		return nil, err
	}
	p.log.Sugar().Infof("scanned openstreetmap ways: %d accepted, %d referenced nodes", len(p.ways), len(p.wayNodeMap))

	if err := p.scan(ctx, mapFile, func(o osm.Object) {
		if node, ok := o.(*osm.Node); ok {
			p.collectNode(node)
		}
	}); err != nil {
		return nil, err
	}

	g, err := p.buildGraph()
	if err != nil {
		return nil, err
	}
	stats := g.Stats()
	p.log.Info("openstreetmap import finished",
		zap.String("file", mapFile),
		zap.Int("nodes", stats.Nodes),
		zap.Int("ways", stats.Ways),
		zap.Int("intersections", stats.Intersections))
	return g, nil
}

func (p *OsmParser) scan(ctx context.Context, mapFile string, handle func(o osm.Object)) error {
	f, err := os.Open(mapFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return util.WrapErrorf(err, util.ErrPathNotFound, "openstreetmap file doesn't exist: %s", mapFile)
		}
		return err
	}
	defer f.Close()

	var scanner osm.Scanner
	if strings.HasSuffix(mapFile, ".pbf") {
		// must not be parallel, ways are collected in file order
		scanner = osmpbf.New(ctx, f, 0)
	} else {
		scanner = osmxml.New(ctx, f)
	}
	defer scanner.Close()

	for scanner.Scan() {
		handle(scanner.Object())
	}
	if err := scanner.Err(); err != nil {
		return util.WrapErrorf(err, util.ErrParse, "scanning openstreetmap file %s", mapFile)
	}
	return nil
}

func (p *OsmParser) collectWay(way *osm.Way) {
	if len(way.Nodes) < 2 || !acceptOsmWay(way) {
		return
	}
	if (len(p.ways)+1)%50000 == 0 {
		p.log.Sugar().Infof("scanning openstreetmap ways: %d...", len(p.ways)+1)
	}
	p.ways = append(p.ways, way)

	for i, n := range way.Nodes {
		if _, ok := p.wayNodeMap[n.ID]; ok {
			p.wayNodeMap[n.ID] = junctionNode
		} else if i == 0 || i == len(way.Nodes)-1 {
			p.wayNodeMap[n.ID] = endNode
		} else {
			p.wayNodeMap[n.ID] = betweenNode
		}
	}
}

func (p *OsmParser) collectNode(node *osm.Node) {
	if _, ok := p.wayNodeMap[node.ID]; ok {
		p.nodes[node.ID] = node
	}
}

// buildGraph adds the referenced nodes first, then the ways. ways touching a node missing from the extract are
// dropped, which happens on clipped extracts.
func (p *OsmParser) buildGraph() (*datastructure.RoadNetworkGraph, error) {
	g := datastructure.NewRoadNetworkGraph(p.df)
	for id, role := range p.wayNodeMap {
		node, ok := p.nodes[id]
		if !ok {
			continue
		}
		rn := datastructure.NewRoadNode(nodeID(id), node.Lon, node.Lat, p.df)
		if role == junctionNode {
			rn.SetNodeType(datastructure.SingleNodeIntersection)
		} else {
			rn.SetNodeType(datastructure.NonIntersectionNode)
		}
		for _, t := range node.Tags {
			if t.Key == "highway" || t.Key == "barrier" {
				rn.AddTag(t.Key, t.Value)
			}
		}
		if err := g.AddNode(rn); err != nil {
			return nil, err
		}
	}

	skipped := 0
	for _, way := range p.ways {
		nodeIDs, ok := p.wayNodeIDs(way)
		if !ok {
			skipped++
			continue
		}
		for _, rw := range p.roadWays(way, nodeIDs) {
			if err := g.AddWay(rw); err != nil {
				return nil, err
			}
		}
	}
	if skipped > 0 {
		p.log.Warn("openstreetmap ways referencing missing nodes were skipped", zap.Int("count", skipped))
	}
	return g, nil
}

func (p *OsmParser) wayNodeIDs(way *osm.Way) ([]string, bool) {
	ids := make([]string, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		if _, ok := p.nodes[n.ID]; !ok {
			return nil, false
		}
		ids = append(ids, nodeID(n.ID))
	}
	return ids, true
}

// roadWays turns one OpenStreetMap way into a forward road way and, for a two-way street, its reverse.
// "oneway=-1" and closed forward access flip the digitized direction.
func (p *OsmParser) roadWays(way *osm.Way, nodeIDs []string) []*datastructure.RoadWay {
	oneWay, forward := wayDirection(way)
	id := strconv.FormatInt(int64(way.ID), 10)
	if !forward {
		nodeIDs = reversed(nodeIDs)
	}

	main := datastructure.NewRoadWay(id, nodeIDs, oneWay, p.df)
	copyWayTags(way, main)
	if oneWay {
		return []*datastructure.RoadWay{main}
	}
	back := datastructure.NewRoadWay(reverseWayPrefix+id, reversed(nodeIDs), false, p.df)
	copyWayTags(way, back)
	return []*datastructure.RoadWay{main, back}
}

func copyWayTags(way *osm.Way, rw *datastructure.RoadWay) {
	for _, key := range keptWayTags {
		if val := way.Tags.Find(key); val != "" {
			rw.AddTag(key, val)
		}
	}
}

func wayDirection(way *osm.Way) (oneWay bool, forward bool) {
	okvf, okmvf, okvb, okmvb := getReversedOneWay(way)
	val := way.Tags.Find("oneway")
	oneWay = val == "yes" || val == "true" || val == "1" || val == "-1" || okvf || okmvf || okvb || okmvb ||
		way.Tags.Find("junction") == "roundabout"
	forward = !(val == "-1" || okvf || okmvf)
	return oneWay, forward
}

func isRestricted(value string) bool {
	return value == "no" || value == "restricted"
}

func getReversedOneWay(way *osm.Way) (bool, bool, bool, bool) {
	vehicleForward := way.Tags.Find("vehicle:forward")
	motorVehicleForward := way.Tags.Find("motor_vehicle:forward")
	vehicleBackward := way.Tags.Find("vehicle:backward")
	motorVehicleBackward := way.Tags.Find("motor_vehicle:backward")
	return isRestricted(vehicleForward), isRestricted(motorVehicleForward), isRestricted(vehicleBackward), isRestricted(motorVehicleBackward)
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")
	if highway != "" {
		_, ok := acceptedHighway[highway]
		return ok
	}
	return junction != ""
}

func nodeID(id osm.NodeID) string {
	return strconv.FormatInt(int64(id), 10)
}

func reversed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
