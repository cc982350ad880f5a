package datastructure

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/money-shredder/map-service/pkg/geo"
	"github.com/money-shredder/map-service/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoadNodeRoundTrip(t *testing.T) {
	df := geo.NewEuclideanDistanceFunction()
	testCases := []struct {
		name string
		line string
	}{
		{name: "plain node", line: "12 116.40000 39.90000"},
		{name: "node with tags", line: "n7 -0.12345 51.50000 highway:traffic_signals nodeType:3"},
		{name: "negative node type", line: "x 1.00000 2.00000 nodeType:-1"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			node, err := ParseRoadNode(tt.line, df)
			require.NoError(t, err)
			assert.Equal(t, tt.line, node.String())

			again, err := ParseRoadNode(node.String(), df)
			require.NoError(t, err)
			assert.Equal(t, node.String(), again.String())
		})
	}

	// numeric formatting is normalized to five decimals
	node, err := ParseRoadNode("1 116.4 39.900001 b:2 a:1", df)
	require.NoError(t, err)
	assert.Equal(t, "1 116.40000 39.90000 a:1 b:2", node.String())
}

func TestParseRoadNodeErrors(t *testing.T) {
	df := geo.NewEuclideanDistanceFunction()
	for _, line := range []string{
		"1 116.4",
		"1 abc 39.9",
		"1 116.4 xyz",
		"1 116.4 39.9 broken",
		"1 116.4 39.9 a:b:c",
		"1 116.4 39.9 nodeType:x",
	} {
		_, err := ParseRoadNode(line, df)
		assert.Error(t, err, line)
	}
}

func TestRoadWayRoundTrip(t *testing.T) {
	df := geo.NewEuclideanDistanceFunction()
	line := "w1 a,b,c true highway:primary name:main"
	way, err := ParseRoadWay(line, df)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, way.NodeIDs())
	assert.True(t, way.IsOneway())
	assert.Equal(t, line, way.String())

	for _, bad := range []string{"w1 a,b", "w1 a,,b true", "w1 a,b maybe", "w1 a,b true k"} {
		_, err := ParseRoadWay(bad, df)
		assert.Error(t, err, bad)
	}
}

func TestWriteReadMap(t *testing.T) {
	for _, name := range []string{"map.txt", "map.txt.bz2"} {
		t.Run(name, func(t *testing.T) {
			g := newTestGraph(t)
			df := g.DistanceFunction()
			w := NewRoadWay("w1", []string{"A", "C", "B"}, true, df)
			w.AddTag("highway", "primary")
			require.NoError(t, g.AddWay(w))
			require.NoError(t, g.AddWay(NewRoadWay("w2", []string{"B", "D"}, false, df)))

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, g.WriteMap(path))

			loaded, err := ReadMap(path, df)
			require.NoError(t, err)
			assert.Equal(t, g.NumberOfNodes(), loaded.NumberOfNodes())
			assert.Equal(t, g.NumberOfWays(), loaded.NumberOfWays())

			lw, ok := loaded.GetWay("w1")
			require.True(t, ok)
			assert.Equal(t, w.String(), lw.String())
			assert.InDelta(t, w.Length(), lw.Length(), 1e-9)

			b, _ := loaded.GetNode("B")
			assert.Equal(t, []string{"w1"}, b.InComingWays())
			assert.Equal(t, []string{"w2"}, b.OutGoingWays())
		})
	}
}

func TestReadMapErrors(t *testing.T) {
	df := geo.NewEuclideanDistanceFunction()
	testCases := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "bad double", content: "A 0 0\nB 1 x\n", wantErr: util.ErrParse},
		{name: "duplicate node", content: "A 0 0\nA 1 1\n", wantErr: util.ErrMalformedGraph},
		{name: "way to unknown node", content: "A 0 0\n#ways\nw1 A,B false\n", wantErr: util.ErrMalformedGraph},
		{name: "bad way line", content: "A 0 0\nB 1 1\n#ways\nw1 A,B\n", wantErr: util.ErrParse},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "map.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := ReadMap(path, df)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, util.ErrParse)
			assert.Contains(t, err.Error(), "map.txt:")
		})
	}

	_, err := ReadMap(filepath.Join(t.TempDir(), "missing.txt"), df)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestAddTagKeepsSingleToken(t *testing.T) {
	df := geo.NewEuclideanDistanceFunction()
	node := NewRoadNode("A", 0, 0, df)
	node.AddTag("name", "Main Street")
	node.AddTag("addr:street", "a\tb:c")
	node.AddTag("", "dropped")
	assert.Equal(t, "A 0.00000 0.00000 addr_street:a_b_c name:Main_Street", node.String())

	node.AddTag("nodeType", "3")
	node.SetNodeType(IntersectionSubNode)
	assert.Equal(t, "A 0.00000 0.00000 addr_street:a_b_c name:Main_Street nodeType:1", node.String())
	_, ok := node.Tag("nodeType")
	assert.False(t, ok)

	node.AddTag("nodeType", "x")
	assert.Equal(t, IntersectionSubNode, node.NodeType())

	again, err := ParseRoadNode(node.String(), df)
	require.NoError(t, err)
	assert.Equal(t, node.String(), again.String())
}

func TestWriteReadMapWithFreeTextTags(t *testing.T) {
	g := newTestGraph(t)
	df := g.DistanceFunction()

	a, _ := g.GetNode("A")
	a.AddTag("name", "Main Street")
	b, _ := g.GetNode("B")
	b.AddTag("nodeType", "3")
	b.SetNodeType(IntersectionSubNode)

	w := NewRoadWay("w1", []string{"A", "B"}, false, df)
	w.AddTag("name", "Rue de la Paix")
	w.AddTag("maxspeed", "50 mph")
	w.AddTag("source:maxspeed", "FR:urban")
	require.NoError(t, g.AddWay(w))

	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, g.WriteMap(path))

	loaded, err := ReadMap(path, df)
	require.NoError(t, err)

	la, ok := loaded.GetNode("A")
	require.True(t, ok)
	assert.Equal(t, a.String(), la.String())
	name, _ := la.Tag("name")
	assert.Equal(t, "Main_Street", name)

	lb, _ := loaded.GetNode("B")
	assert.Equal(t, IntersectionSubNode, lb.NodeType())
	assert.Equal(t, "B 3.00000 4.00000 nodeType:1", lb.String())

	lw, ok := loaded.GetWay("w1")
	require.True(t, ok)
	assert.Equal(t, "w1 A,B false maxspeed:50_mph name:Rue_de_la_Paix source_maxspeed:FR_urban", lw.String())
}

func TestWriteTextFileReportsDeviceErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this system")
	}
	dir := t.TempDir()
	g := newTestGraph(t)

	for _, name := range []string{"map.txt", "map.txt.bz2"} {
		t.Run(name, func(t *testing.T) {
			// bzip2 buffers the whole block, so its write only fails when the writer is closed
			path := filepath.Join(dir, name)
			require.NoError(t, os.Symlink("/dev/full", path))
			assert.Error(t, g.WriteMap(path))
		})
	}

	assert.Error(t, WriteTextFile(filepath.Join(dir, "missing", "x.txt"), func(w *bufio.Writer) {}))
}
