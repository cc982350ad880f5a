package datastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/util"
)

// waySectionHeader separates node lines from way lines in a map file.
const waySectionHeader = "#ways"

// WriteMap writes node lines, the way header, then way lines, both ordered by ID. a ".bz2" suffix compresses the file.
func (g *RoadNetworkGraph) WriteMap(filename string) error {
	return WriteTextFile(filename, func(w *bufio.Writer) {
		for _, n := range g.Nodes() {
			fmt.Fprintln(w, n.String())
		}
		fmt.Fprintln(w, waySectionHeader)
		for _, way := range g.Ways() {
			fmt.Fprintln(w, way.String())
		}
	})
}

// WriteTextFile creates filename, compressing it when the name ends in ".bz2", and hands write a buffered writer.
// write errors surface through the final flush and close, so a nil result means the whole file reached disk.
func WriteTextFile(filename string, write func(w *bufio.Writer)) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	var out io.WriteCloser = f
	if strings.HasSuffix(filename, ".bz2") {
		bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
		if err != nil {
			f.Close()
			return err
		}
		out = &bz2WriteFile{Writer: bz, f: f}
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(out)
	write(w)
	return w.Flush()
}

type bz2WriteFile struct {
	*bzip2.Writer
	f *os.File
}

func (b *bz2WriteFile) Close() error {
	err := b.Writer.Close()
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenInput opens a text input, decompressing ".bz2" files. a missing path yields ErrPathNotFound.
func OpenInput(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, util.WrapErrorf(err, util.ErrPathNotFound, "input path doesn't exist: %s", filename)
		}
		return nil, err
	}
	if !strings.HasSuffix(filename, ".bz2") {
		return f, nil
	}
	bz, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &bz2File{Reader: bz, f: f}, nil
}

type bz2File struct {
	*bzip2.Reader
	f *os.File
}

func (b *bz2File) Close() error {
	b.Reader.Close()
	return b.f.Close()
}

// ReadMap loads a map file and verifies the node/way back-references. parse and graph errors abort the load and
// name the offending line.
func ReadMap(filename string, df geo.DistanceFunction) (*RoadNetworkGraph, error) {
	rc, err := OpenInput(filename)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	g := NewRoadNetworkGraph(df)
	br := bufio.NewReader(rc)
	inWaySection := false
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
		if line == waySectionHeader {
			inWaySection = true
			continue
		}

		if !inWaySection {
			node, err := ParseRoadNode(line, df)
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrParse, "%s:%d: %q", filename, lineNumber, line)
			}
			if err := g.AddNode(node); err != nil {
				return nil, util.WrapErrorf(err, util.ErrParse, "%s:%d: %q", filename, lineNumber, line)
			}
			continue
		}

		way, err := ParseRoadWay(line, df)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrParse, "%s:%d: %q", filename, lineNumber, line)
		}
		if err := g.AddWay(way); err != nil {
			return nil, util.WrapErrorf(err, util.ErrParse, "%s:%d: %q", filename, lineNumber, line)
		}
	}

	if err := g.CheckConsistency(); err != nil {
		return nil, err
	}
	return g, nil
}
