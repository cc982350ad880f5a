package datastructure

import (
	"sort"

	"github.com/money-shredder/map-service/pkg/util"
)

// MatchResult is the ordered list of road way IDs a trajectory was matched to.
type MatchResult struct {
	trajectoryID string
	segmentIDs   []string
}

func NewMatchResult(trajectoryID string, segmentIDs []string) *MatchResult {
	ids := make([]string, len(segmentIDs))
	copy(ids, segmentIDs)
	return &MatchResult{trajectoryID: trajectoryID, segmentIDs: ids}
}

func (m *MatchResult) TrajectoryID() string {
	return m.trajectoryID
}

func (m *MatchResult) SegmentIDs() []string {
	ids := make([]string, len(m.segmentIDs))
	copy(ids, m.segmentIDs)
	return ids
}

func (m *MatchResult) Len() int {
	return len(m.segmentIDs)
}

// SegmentSet collapses the match into a set; order and duplicates are dropped.
func (m *MatchResult) SegmentSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.segmentIDs))
	for _, id := range m.segmentIDs {
		set[id] = struct{}{}
	}
	return set
}

// MatchResultSet indexes match results by trajectory ID.
type MatchResultSet struct {
	results map[string]*MatchResult
}

func NewMatchResultSet() *MatchResultSet {
	return &MatchResultSet{results: make(map[string]*MatchResult)}
}

func (s *MatchResultSet) Add(m *MatchResult) error {
	if _, exists := s.results[m.TrajectoryID()]; exists {
		return util.WrapErrorf(nil, util.ErrParse, "duplicate match result for trajectory %s", m.TrajectoryID())
	}
	s.results[m.TrajectoryID()] = m
	return nil
}

func (s *MatchResultSet) Get(trajectoryID string) (*MatchResult, bool) {
	m, ok := s.results[trajectoryID]
	return m, ok
}

func (s *MatchResultSet) Len() int {
	return len(s.results)
}

// TrajectoryIDs returns the keys in ascending order.
func (s *MatchResultSet) TrajectoryIDs() []string {
	ids := make([]string, 0, len(s.results))
	for id := range s.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
