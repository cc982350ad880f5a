package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/money-shredder/map-service/pkg/datastructure"
	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/simplifier"
	"github.com/money-shredder/map-service/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// singleFileTrajectoryID is the id given to a trajectory read from a plain file path instead of a folder.
const singleFileTrajectoryID = "0"

var tripFilePattern = regexp.MustCompile(`^trip_[0-9]*\.txt$`)

// TrajectoryReader turns point files into trajectories. every reader applies the same down-sampling; the parallel
// reader additionally runs Douglas-Peucker when a tolerance is set.
type TrajectoryReader struct {
	df             geo.DistanceFunction
	downSampleRate int
	dpFilter       *simplifier.DouglasPeuckerFilter
	workers        int
	log            *zap.Logger
}

func NewTrajectoryReader(df geo.DistanceFunction, downSampleRate int, tolerance float64, workers int,
	log *zap.Logger) (*TrajectoryReader, error) {
	if downSampleRate < 1 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "down-sample rate must be at least 1, got %d", downSampleRate)
	}
	if workers < 1 {
		workers = 1
	}
	r := &TrajectoryReader{
		df:             df,
		downSampleRate: downSampleRate,
		workers:        workers,
		log:            log,
	}
	dpFilter, err := simplifier.NewDouglasPeuckerFilter(tolerance, df)
	if err != nil {
		return nil, err
	}
	if tolerance > 0 {
		r.dpFilter = dpFilter
	}
	return r, nil
}

// ReadTrajectory reads one point file with the reader's down-sample rate.
func (r *TrajectoryReader) ReadTrajectory(filename, trajectoryID string) (*datastructure.Trajectory, error) {
	return readTrajectory(filename, trajectoryID, r.downSampleRate, r.df)
}

// readTrajectory keeps line i when i is the first, the last or a multiple of downSampleRate, then drops a kept point
// whose timestamp repeats the previous kept one.
func readTrajectory(filename, trajectoryID string, downSampleRate int, df geo.DistanceFunction) (*datastructure.Trajectory, error) {
	lines, err := readLines(filename)
	if err != nil {
		return nil, err
	}

	traj := datastructure.NewTrajectory(trajectoryID, df)
	var prevTime int64
	hasPrev := false
	for i, l := range lines {
		if i != 0 && i%downSampleRate != 0 && i != len(lines)-1 {
			continue
		}
		p, err := datastructure.ParseTrajectoryPoint(l.text, df)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrParse, "%s:%d: %q", filename, l.number, l.text)
		}
		if hasPrev && p.Time() == prevTime {
			continue
		}
		traj.Add(p)
		prevTime, hasPrev = p.Time(), true
	}
	return traj, nil
}

type numberedLine struct {
	number int
	text   string
}

// readLines returns the non-blank lines of filename with their 1-based line numbers.
func readLines(filename string) ([]numberedLine, error) {
	rc, err := datastructure.OpenInput(filename)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lines := make([]numberedLine, 0)
	br := bufio.NewReader(rc)
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
		lines = append(lines, numberedLine{number: lineNumber, text: line})
	}
	return lines, nil
}

// ReadTrajectoriesToList reads every "*_<id>.txt" file of folder in name order. a plain file path is read as a
// single trajectory with id "0".
func (r *TrajectoryReader) ReadTrajectoriesToList(folder string) ([]*datastructure.Trajectory, error) {
	info, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, util.WrapErrorf(err, util.ErrPathNotFound, "input trajectory path doesn't exist: %s", folder)
		}
		return nil, err
	}
	if !info.IsDir() {
		traj, err := r.ReadTrajectory(folder, singleFileTrajectoryID)
		if err != nil {
			return nil, err
		}
		return []*datastructure.Trajectory{traj}, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	trajectories := make([]*datastructure.Trajectory, 0, len(entries))
	pointCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		trajID, ok := datastructure.TrajectoryIDFromFileName(entry.Name())
		if !ok {
			r.log.Warn("skipping trajectory file with unexpected name", zap.String("file", entry.Name()))
			continue
		}
		traj, err := r.ReadTrajectory(filepath.Join(folder, entry.Name()), trajID)
		if err != nil {
			return nil, err
		}
		trajectories = append(trajectories, traj)
		pointCount += traj.Len()
	}
	r.log.Sugar().Debugf("trajectories reading finished, total number of trajectories: %d, trajectory points: %d",
		len(trajectories), pointCount)
	return trajectories, nil
}

// ReadTrajectoriesToStream reads every trip_<digits>.txt file of folder with at most workers files open at once,
// simplifying each trajectory when a tolerance is set. the order of the result is unspecified.
func (r *TrajectoryReader) ReadTrajectoriesToStream(ctx context.Context, folder string) ([]*datastructure.Trajectory, error) {
	files, err := r.listFiles(folder, func(name string) (string, fileVerdict) {
		if !tripFilePattern.MatchString(name) {
			return "", unexpectedName
		}
		id, ok := datastructure.TrajectoryIDFromFileName(name)
		if !ok {
			return "", unexpectedName
		}
		return id, acceptFile
	})
	if err != nil {
		return nil, err
	}

	return r.readParallel(ctx, files, func(f trajectoryFile) (*datastructure.Trajectory, error) {
		traj, err := readTrajectory(f.path, f.id, r.downSampleRate, r.df)
		if err != nil {
			return nil, err
		}
		if r.dpFilter != nil {
			traj = r.dpFilter.SimplifyTrajectory(traj)
		}
		return traj, nil
	})
}

// ReadTrajectoriesWithIDs reads only the files of folder whose trajectory id is listed, without down-sampling or
// simplification. listed ids with no file are logged and skipped. the order of the result is unspecified.
func (r *TrajectoryReader) ReadTrajectoriesWithIDs(ctx context.Context, folder string, ids []string) ([]*datastructure.Trajectory, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	files, err := r.listFiles(folder, func(name string) (string, fileVerdict) {
		id, ok := datastructure.TrajectoryIDFromFileName(name)
		if !ok {
			return "", unexpectedName
		}
		if _, ok := wanted[id]; !ok {
			return "", notRequested
		}
		return id, acceptFile
	})
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(files))
	for _, f := range files {
		found[f.id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			r.log.Warn("no trajectory file for requested id", zap.String("folder", folder), zap.String("trajectoryID", id))
		}
	}

	return r.readParallel(ctx, files, func(f trajectoryFile) (*datastructure.Trajectory, error) {
		return readTrajectory(f.path, f.id, 1, r.df)
	})
}

type trajectoryFile struct {
	path string
	id   string
}

type fileVerdict int8

const (
	acceptFile fileVerdict = iota
	notRequested
	unexpectedName
)

// listFiles returns the files of folder accepted by match. files with an unexpected name are skipped with a
// warning, files that are simply not requested are skipped silently.
func (r *TrajectoryReader) listFiles(folder string, match func(name string) (string, fileVerdict)) ([]trajectoryFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, util.WrapErrorf(err, util.ErrPathNotFound, "input trajectory path doesn't exist: %s", folder)
		}
		return nil, err
	}
	files := make([]trajectoryFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, verdict := match(entry.Name())
		switch verdict {
		case unexpectedName:
			r.log.Warn("skipping trajectory file with unexpected name", zap.String("folder", folder),
				zap.String("file", entry.Name()))
			continue
		case notRequested:
			continue
		}
		files = append(files, trajectoryFile{path: filepath.Join(folder, entry.Name()), id: id})
	}
	return files, nil
}

// readParallel runs read over files with bounded parallelism. the first error cancels the remaining reads.
func (r *TrajectoryReader) readParallel(ctx context.Context, files []trajectoryFile,
	read func(f trajectoryFile) (*datastructure.Trajectory, error)) ([]*datastructure.Trajectory, error) {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)

	var mu sync.Mutex
	trajectories := make([]*datastructure.Trajectory, 0, len(files))
	for _, f := range files {
		f := f
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			traj, err := read(f)
			if err != nil {
				return err
			}
			mu.Lock()
			trajectories = append(trajectories, traj)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	r.log.Debug("trajectories read", zap.Int("files", len(files)), zap.Int("trajectories", len(trajectories)))
	return trajectories, nil
}

// WriteTrajectory writes one "x y timestamp" line per point.
func WriteTrajectory(filename string, traj *datastructure.Trajectory) error {
	return datastructure.WriteTextFile(filename, func(w *bufio.Writer) {
		for _, p := range traj.Points() {
			fmt.Fprintln(w, p.String())
		}
	})
}

// WriteTrajectories writes trip_<id>.txt per trajectory into folder, creating it when needed.
func WriteTrajectories(folder string, trajectories []*datastructure.Trajectory) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	sorted := make([]*datastructure.Trajectory, len(trajectories))
	copy(sorted, trajectories)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID() < sorted[j].ID()
	})
	for _, traj := range sorted {
		if err := WriteTrajectory(filepath.Join(folder, "trip_"+traj.ID()+".txt"), traj); err != nil {
			return err
		}
	}
	return nil
}
