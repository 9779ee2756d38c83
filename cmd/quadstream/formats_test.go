package main

import (
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-quadstream/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDeduceFormat(t *testing.T) {
	for _, tc := range []struct {
		format, path, want string
	}{
		{path: "out/points.mbtiles", want: "mbtiles"},
		{path: "out/points.pmtiles", want: "pmtiles"},
		{path: "out/points", want: "xyz"},
		{format: "xyz", path: "out/points.pmtiles", want: "xyz"},
	} {
		if got := deduceFormat(tc.format, tc.path); got != tc.want {
			t.Errorf("deduceFormat(%q, %q) = %q, want = %q", tc.format, tc.path, got, tc.want)
		}
	}
}

func TestWriterVisitorFormats(t *testing.T) {
	tiles := map[tile.ID][]byte{
		{X: 0, Y: 0, Z: 0}: []byte("root"),
		{X: 1, Y: 1, Z: 1}: []byte("tile111"),
	}
	for _, name := range []string{"points.pmtiles", "points"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writer, err := openWriter("", path, slog.New(slog.DiscardHandler))
			require.NoError(t, err)
			for tileID, tileData := range tiles {
				require.NoError(t, writer.WriteTile(tileID, tileData))
			}
			require.NoError(t, writer.Finalize())

			visitor, err := openVisitor("", path)
			require.NoError(t, err)
			if closer, ok := visitor.(io.Closer); ok {
				defer closer.Close()
			}
			if diff := cmp.Diff(tiles, maps.Collect(tile.IterTiles(visitor))); diff != "" {
				t.Errorf("VisitTiles mismatch (-want+got):\n%v", diff)
			}
		})
	}

	if _, err := openWriter("geojson", "points", nil); err == nil {
		t.Error("openWriter(geojson) succeeded")
	}
}
