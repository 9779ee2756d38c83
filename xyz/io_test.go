package xyz_test

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-quadstream/tile"
	"github.com/eak1mov/go-quadstream/xyz"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	pattern := xyz.DirPattern(t.TempDir(), ".json")

	tiles := map[tile.ID][]byte{
		{X: 0, Y: 0, Z: 0}: []byte("tile000"),
		{X: 1, Y: 1, Z: 1}: []byte("tile111"),
		{X: 0, Y: 0, Z: 6}: []byte("tile006"),
		{X: 6, Y: 6, Z: 6}: []byte("tile666"),
	}

	writer, err := xyz.NewWriter(pattern)
	require.NoError(t, err)
	for tileID, tileData := range tiles {
		require.NoError(t, writer.WriteTile(tileID, tileData))
	}
	require.NoError(t, writer.Finalize())

	reader, err := xyz.NewReader(pattern)
	require.NoError(t, err)

	if got, want := maps.Collect(tile.IterTiles(reader)), tiles; !cmp.Equal(got, want) {
		t.Errorf("VisitTiles data mismatch")
	}

	for tileID, tileData := range tiles {
		data, err := reader.ReadTile(tileID)
		if err != nil {
			t.Errorf("ReadTile(%v) failed: %v", tileID, err)
			continue
		}
		if !cmp.Equal(data, tileData) {
			t.Errorf("ReadTile data mismatch for %v", tileID)
		}
	}

	tileData, err := reader.ReadTile(tile.ID{X: 9, Y: 9, Z: 9})
	if err != nil {
		t.Errorf("ReadTile(missing tile) failed: %v", err)
	}
	if len(tileData) != 0 {
		t.Errorf("ReadTile(missing tile) expected empty tile, got: %v bytes", len(tileData))
	}
}

func TestVisitSkipsForeignFiles(t *testing.T) {
	rootDir := t.TempDir()
	pattern := xyz.DirPattern(rootDir, ".json")

	writer, err := xyz.NewWriter(pattern)
	require.NoError(t, err)
	require.NoError(t, writer.WriteTile(tile.Root, []byte("root")))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "README"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "1", "5"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "1", "5", "0.json"), []byte("x"), 0644))

	reader, err := xyz.NewReader(pattern)
	require.NoError(t, err)

	want := map[tile.ID][]byte{tile.Root: []byte("root")}
	if diff := cmp.Diff(want, maps.Collect(tile.IterTiles(reader))); diff != "" {
		t.Errorf("VisitTiles mismatch (-want+got):\n%v", diff)
	}
}

func TestInvalidPattern(t *testing.T) {
	for _, pattern := range []string{
		"/tiles/{z}/{x}.json",
		"/tiles/{z}/{x}/{x}/{y}.json",
		"",
	} {
		if _, err := xyz.NewReader(pattern); !errors.Is(err, xyz.ErrInvalidPattern) {
			t.Errorf("NewReader(%q) error = %v, want ErrInvalidPattern", pattern, err)
		}
		if _, err := xyz.NewWriter(pattern); !errors.Is(err, xyz.ErrInvalidPattern) {
			t.Errorf("NewWriter(%q) error = %v, want ErrInvalidPattern", pattern, err)
		}
	}
}
