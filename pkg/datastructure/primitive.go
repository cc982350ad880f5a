package datastructure

import (
	"sort"
	"strings"
	"unicode"

	"github.com/money-shredder/map-service/pkg/geo"
)

// RoadNetworkPrimitive is the identity, open-ended tags and metric shared by RoadNode and RoadWay.
type RoadNetworkPrimitive struct {
	id   string
	tags map[string]string
	df   geo.DistanceFunction
}

func newRoadNetworkPrimitive(id string, df geo.DistanceFunction) RoadNetworkPrimitive {
	return RoadNetworkPrimitive{
		id:   id,
		tags: make(map[string]string),
		df:   df,
	}
}

func (p *RoadNetworkPrimitive) ID() string {
	return p.id
}

func (p *RoadNetworkPrimitive) DistanceFunction() geo.DistanceFunction {
	return p.df
}

// AddTag stores a tag. whitespace and ':' in key and value become '_' so the pair stays one
// "key:value" token of the map text format. an empty key is ignored.
func (p *RoadNetworkPrimitive) AddTag(key, value string) {
	key = SanitizeTag(key)
	if key == "" {
		return
	}
	p.tags[key] = SanitizeTag(value)
}

// SanitizeTag replaces the characters the map text format uses as separators.
func SanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ':' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}

func (p *RoadNetworkPrimitive) Tag(key string) (string, bool) {
	v, ok := p.tags[key]
	return v, ok
}

// Tags returns a copy of the tag map.
func (p *RoadNetworkPrimitive) Tags() map[string]string {
	tags := make(map[string]string, len(p.tags))
	for k, v := range p.tags {
		tags[k] = v
	}
	return tags
}

func (p *RoadNetworkPrimitive) copyTagsFrom(tags map[string]string) {
	for k, v := range tags {
		p.tags[k] = v
	}
}

type tag struct {
	key, value string
}

// writeTags appends " key:value" for every tag in key order.
func writeTags(sb *strings.Builder, tags []tag) {
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].key < tags[j].key
	})
	for _, t := range tags {
		sb.WriteString(" ")
		sb.WriteString(t.key)
		sb.WriteString(":")
		sb.WriteString(t.value)
	}
}

func (p *RoadNetworkPrimitive) tagList() []tag {
	tags := make([]tag, 0, len(p.tags))
	for k, v := range p.tags {
		tags = append(tags, tag{k, v})
	}
	return tags
}
