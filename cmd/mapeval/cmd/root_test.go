package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAndStatsCommands(t *testing.T) {
	dir := t.TempDir()
	predDir, gtDir := filepath.Join(dir, "pred"), filepath.Join(dir, "gt")
	require.NoError(t, os.MkdirAll(predDir, 0o755))
	require.NoError(t, os.MkdirAll(gtDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(predDir, "route_1.txt"), []byte("seg1\nseg2\nseg3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gtDir, "route_1.txt"), []byte("seg2\nseg3\nseg4\n"), 0o644))

	mapPath := filepath.Join(dir, "map.txt")
	require.NoError(t, os.WriteFile(mapPath, []byte("A 0 0\nB 3 4\n#ways\nw1 A,B true\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"evaluate", "--predicted_folder", predDir, "--ground_truth_folder", gtDir,
		"--distance_function", "euclidean", "--workers", "2"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Precision recall: 0.667,0.667,0.667\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"stats", "--map_path", mapPath, "--distance_function", "euclidean"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "nodes: 2\n")
	assert.Contains(t, out.String(), "ways: 1\n")
	assert.Contains(t, out.String(), "total length: 5.000\n")

	rootCmd.SetArgs([]string{"evaluate", "--distance_function", "manhattan"})
	assert.Error(t, rootCmd.Execute())
}
