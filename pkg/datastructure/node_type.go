package datastructure

import (
	"fmt"
	"strconv"
)

// NodeType of a road node. the numeric codes are the ones used in map files.
type NodeType int8

const (
	NodeTypeNull           NodeType = -2
	NodeTypeUnknown        NodeType = -1
	NonIntersectionNode    NodeType = 0
	IntersectionSubNode    NodeType = 1
	SingleNodeIntersection NodeType = 2
	IntersectionMainNode   NodeType = 3
	MiniNode               NodeType = 4
)

const nodeTypeTagKey = "nodeType"

func (t NodeType) String() string {
	switch t {
	case NodeTypeNull:
		return "null"
	case NodeTypeUnknown:
		return "unknown"
	case NonIntersectionNode:
		return "non-intersection"
	case IntersectionSubNode:
		return "intersection-sub-node"
	case SingleNodeIntersection:
		return "single-node-intersection"
	case IntersectionMainNode:
		return "intersection-main-node"
	case MiniNode:
		return "mini-node"
	}
	return fmt.Sprintf("NodeType(%d)", int8(t))
}

func ParseNodeType(s string) (NodeType, error) {
	code, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return NodeTypeNull, fmt.Errorf("invalid node type %q: %w", s, err)
	}
	t := NodeType(code)
	if t < NodeTypeNull || t > MiniNode {
		return NodeTypeNull, fmt.Errorf("node type %d out of range", code)
	}
	return t, nil
}
