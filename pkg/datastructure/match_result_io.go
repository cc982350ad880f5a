package datastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/money-shredder/map-service/pkg/util"
	"go.uber.org/zap"
)

const matchResultFilePrefix = "route_"

// TrajectoryIDFromFileName extracts the token between the first '_' and the first '.' of a "*_<id>.txt" name.
// names with more than one extension ("route_1.bak.txt") do not match.
func TrajectoryIDFromFileName(name string) (string, bool) {
	underscore := strings.Index(name, "_")
	dot := strings.Index(name, ".")
	if underscore < 0 || dot <= underscore+1 || name[dot:] != ".txt" {
		return "", false
	}
	return name[underscore+1 : dot], true
}

// ReadMatchResults reads every "*_<trajectoryID>.txt" file of folder, one road way ID per line.
// other files are skipped with a warning.
func ReadMatchResults(folder string, log *zap.Logger) (*MatchResultSet, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, util.WrapErrorf(err, util.ErrPathNotFound, "match result folder doesn't exist: %s", folder)
		}
		return nil, err
	}

	set := NewMatchResultSet()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		trajID, ok := TrajectoryIDFromFileName(entry.Name())
		if !ok {
			log.Warn("skipping match result file with unexpected name", zap.String("file", entry.Name()))
			continue
		}
		m, err := ReadMatchResult(filepath.Join(folder, entry.Name()), trajID)
		if err != nil {
			return nil, err
		}
		if err := set.Add(m); err != nil {
			return nil, err
		}
	}
	log.Debug("match results read", zap.String("folder", folder), zap.Int("trajectories", set.Len()))
	return set, nil
}

func ReadMatchResult(filename, trajectoryID string) (*MatchResult, error) {
	f, err := OpenInput(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	segmentIDs := make([]string, 0)
	br := bufio.NewReader(f)
	for lineNumber := 1; ; lineNumber++ {
		line, err := util.ReadLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(util.Fields(line)) != 1 {
			return nil, util.WrapErrorf(nil, util.ErrParse, "%s:%d: expected one road way id, got %q", filename, lineNumber, line)
		}
		segmentIDs = append(segmentIDs, line)
	}
	return NewMatchResult(trajectoryID, segmentIDs), nil
}

// WriteMatchResults writes route_<trajectoryID>.txt per result into folder, creating it when needed.
func WriteMatchResults(folder string, set *MatchResultSet) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	for _, id := range set.TrajectoryIDs() {
		m, _ := set.Get(id)
		if err := writeMatchResult(filepath.Join(folder, matchResultFilePrefix+id+".txt"), m); err != nil {
			return err
		}
	}
	return nil
}

func writeMatchResult(filename string, m *MatchResult) error {
	return WriteTextFile(filename, func(w *bufio.Writer) {
		for _, segID := range m.segmentIDs {
			fmt.Fprintln(w, segID)
		}
	})
}
