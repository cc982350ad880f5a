package datastructure

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/money-shredder/map-service/pkg/geo"
)

// RoadWay is a directed road segment through an ordered list of nodes, referenced by ID.
type RoadWay struct {
	RoadNetworkPrimitive
	nodeIDs []string
	oneway  bool
	length  float64 // cached by the graph when the way is added or a vertex moves
}

func NewRoadWay(id string, nodeIDs []string, oneway bool, df geo.DistanceFunction) *RoadWay {
	ids := make([]string, len(nodeIDs))
	copy(ids, nodeIDs)
	return &RoadWay{
		RoadNetworkPrimitive: newRoadNetworkPrimitive(id, df),
		nodeIDs:              ids,
		oneway:               oneway,
	}
}

func (w *RoadWay) NodeIDs() []string {
	ids := make([]string, len(w.nodeIDs))
	copy(ids, w.nodeIDs)
	return ids
}

func (w *RoadWay) NumberOfNodes() int {
	return len(w.nodeIDs)
}

// FromNodeID is the first vertex. empty for a way without vertices.
func (w *RoadWay) FromNodeID() string {
	if len(w.nodeIDs) == 0 {
		return ""
	}
	return w.nodeIDs[0]
}

func (w *RoadWay) ToNodeID() string {
	if len(w.nodeIDs) == 0 {
		return ""
	}
	return w.nodeIDs[len(w.nodeIDs)-1]
}

func (w *RoadWay) IsOneway() bool {
	return w.oneway
}

// Length in distance function units. zero until the way is added to a graph.
func (w *RoadWay) Length() float64 {
	return w.length
}

func (w *RoadWay) containsNode(nodeID string) bool {
	for _, id := range w.nodeIDs {
		if id == nodeID {
			return true
		}
	}
	return false
}

// String renders "id n1,n2,...,nk oneway [key:value ...]".
func (w *RoadWay) String() string {
	var sb strings.Builder
	sb.WriteString(w.id)
	sb.WriteString(" ")
	sb.WriteString(strings.Join(w.nodeIDs, ","))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatBool(w.oneway))
	writeTags(&sb, w.tagList())
	return sb.String()
}

// ParseRoadWay parses the String form of a way.
func ParseRoadWay(s string, df geo.DistanceFunction) (*RoadWay, error) {
	wayInfo := strings.Fields(s)
	if len(wayInfo) < 3 {
		return nil, fmt.Errorf("road way needs at least 3 fields, got %d: %q", len(wayInfo), s)
	}
	nodeIDs := strings.Split(wayInfo[1], ",")
	for _, id := range nodeIDs {
		if id == "" {
			return nil, fmt.Errorf("empty node id in way %q", wayInfo[0])
		}
	}
	oneway, err := strconv.ParseBool(wayInfo[2])
	if err != nil {
		return nil, fmt.Errorf("invalid oneway flag %q: %w", wayInfo[2], err)
	}
	tags, err := parseTags(wayInfo[3:])
	if err != nil {
		return nil, err
	}

	way := NewRoadWay(wayInfo[0], nodeIDs, oneway, df)
	way.copyTagsFrom(tags)
	return way, nil
}
