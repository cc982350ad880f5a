package datastructure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/paulmach/orb"
)

// RoadNode is an intersection or shape point of the road network.
// incoming/outgoing hold IDs of ways whose last/first vertex is this node. only RoadNetworkGraph mutates them.
type RoadNode struct {
	RoadNetworkPrimitive
	lon      float64 // x
	lat      float64 // y
	nodeType NodeType

	inComingWays map[string]struct{}
	outGoingWays map[string]struct{}
}

func NewRoadNode(id string, lon, lat float64, df geo.DistanceFunction) *RoadNode {
	return &RoadNode{
		RoadNetworkPrimitive: newRoadNetworkPrimitive(id, df),
		lon:                  lon,
		lat:                  lat,
		nodeType:             NodeTypeNull,
		inComingWays:         make(map[string]struct{}),
		outGoingWays:         make(map[string]struct{}),
	}
}

// NewRoadNodeWithTags creates a node whose tags are copied from tags. a nodeType tag sets the typed field.
func NewRoadNodeWithTags(id string, lon, lat float64, tags map[string]string, df geo.DistanceFunction) (*RoadNode, error) {
	node := NewRoadNode(id, lon, lat, df)
	for k, v := range tags {
		if k == nodeTypeTagKey {
			t, err := ParseNodeType(v)
			if err != nil {
				return nil, err
			}
			node.nodeType = t
			continue
		}
		node.AddTag(k, v)
	}
	return node, nil
}

// AddTag stores a tag. the reserved nodeType key sets the typed node type instead and is ignored when the
// value is not a valid code.
func (n *RoadNode) AddTag(key, value string) {
	if key == nodeTypeTagKey {
		if t, err := ParseNodeType(value); err == nil {
			n.nodeType = t
		}
		return
	}
	n.RoadNetworkPrimitive.AddTag(key, value)
}

func (n *RoadNode) Lon() float64 {
	return n.lon
}

func (n *RoadNode) Lat() float64 {
	return n.lat
}

func (n *RoadNode) ToPoint() orb.Point {
	return orb.Point{n.lon, n.lat}
}

func (n *RoadNode) NodeType() NodeType {
	return n.nodeType
}

func (n *RoadNode) SetNodeType(t NodeType) {
	n.nodeType = t
}

func (n *RoadNode) InComingWays() []string {
	return sortedKeys(n.inComingWays)
}

func (n *RoadNode) OutGoingWays() []string {
	return sortedKeys(n.outGoingWays)
}

func (n *RoadNode) HasInComingWay(wayID string) bool {
	_, ok := n.inComingWays[wayID]
	return ok
}

func (n *RoadNode) HasOutGoingWay(wayID string) bool {
	_, ok := n.outGoingWays[wayID]
	return ok
}

func (n *RoadNode) InComingDegree() int {
	return len(n.inComingWays)
}

func (n *RoadNode) OutGoingDegree() int {
	return len(n.outGoingWays)
}

func (n *RoadNode) Degree() int {
	return n.InComingDegree() + n.OutGoingDegree()
}

func (n *RoadNode) addInComingWay(wayID string) {
	n.inComingWays[wayID] = struct{}{}
}

func (n *RoadNode) addOutGoingWay(wayID string) {
	n.outGoingWays[wayID] = struct{}{}
}

func (n *RoadNode) removeInComingWay(wayID string) {
	delete(n.inComingWays, wayID)
}

func (n *RoadNode) removeOutGoingWay(wayID string) {
	delete(n.outGoingWays, wayID)
}

func (n *RoadNode) clearConnectedWays() {
	n.inComingWays = make(map[string]struct{})
	n.outGoingWays = make(map[string]struct{})
}

// Equal compares id and coordinates, like the map files do.
func (n *RoadNode) Equal(other *RoadNode) bool {
	if other == nil {
		return false
	}
	return n.id == other.id && n.lon == other.lon && n.lat == other.lat
}

// Clone returns a detached copy: same id, location, type and tags, no way references.
func (n *RoadNode) Clone() *RoadNode {
	clone := NewRoadNode(n.id, n.lon, n.lat, n.df)
	clone.nodeType = n.nodeType
	clone.copyTagsFrom(n.tags)
	return clone
}

// String renders "id lon lat [key:value ...]" with five decimals.
func (n *RoadNode) String() string {
	var sb strings.Builder
	sb.WriteString(n.id)
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(n.lon, 'f', 5, 64))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(n.lat, 'f', 5, 64))

	tags := n.tagList()
	if n.nodeType != NodeTypeNull {
		tags = append(tags, tag{nodeTypeTagKey, strconv.Itoa(int(n.nodeType))})
	}
	writeTags(&sb, tags)
	return sb.String()
}

// ParseRoadNode parses the String form of a node.
func ParseRoadNode(s string, df geo.DistanceFunction) (*RoadNode, error) {
	nodeInfo := strings.Fields(s)
	if len(nodeInfo) < 3 {
		return nil, fmt.Errorf("road node needs at least 3 fields, got %d: %q", len(nodeInfo), s)
	}
	lon, err := strconv.ParseFloat(nodeInfo[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", nodeInfo[1], err)
	}
	lat, err := strconv.ParseFloat(nodeInfo[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", nodeInfo[2], err)
	}

	tags, err := parseTags(nodeInfo[3:])
	if err != nil {
		return nil, err
	}
	return NewRoadNodeWithTags(nodeInfo[0], lon, lat, tags, df)
}

func parseTags(tokens []string) (map[string]string, error) {
	tags := make(map[string]string, len(tokens))
	for _, token := range tokens {
		attribute := strings.Split(token, ":")
		if len(attribute) != 2 || attribute[0] == "" {
			return nil, fmt.Errorf("the attribute is not readable: %q", token)
		}
		tags[attribute[0]] = attribute[1]
	}
	return tags, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
