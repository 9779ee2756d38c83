package web_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eak1mov/go-quadstream/tile"
	"github.com/eak1mov/go-quadstream/web"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReadTile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tiles/0/0/0.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("root"))
	})
	mux.HandleFunc("/tiles/1/1/0.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	reader, err := web.NewReader(server.URL+"/tiles/", web.WithClient(server.Client()))
	require.NoError(t, err)

	if got, want := reader.TileURL(tile.ID{X: 1, Y: 0, Z: 1}), server.URL+"/tiles/1/1/0.json"; got != want {
		t.Errorf("TileURL() = %q, want = %q", got, want)
	}

	data, err := reader.ReadTile(tile.Root)
	require.NoError(t, err)
	if diff := cmp.Diff([]byte("root"), data); diff != "" {
		t.Errorf("ReadTile(root) mismatch (-want+got):\n%v", diff)
	}

	data, err = reader.ReadTile(tile.ID{X: 0, Y: 0, Z: 1})
	require.NoError(t, err)
	if len(data) != 0 {
		t.Errorf("ReadTile(missing tile) expected empty tile, got: %v bytes", len(data))
	}

	if _, err := reader.ReadTile(tile.ID{X: 1, Y: 0, Z: 1}); !errors.Is(err, web.ErrStatus) {
		t.Errorf("ReadTile(failing tile) error = %v, want ErrStatus", err)
	}
}

func TestNewReaderInvalid(t *testing.T) {
	for _, base := range []string{"ftp://example.com/tiles", "/local/dir", "://bad"} {
		if _, err := web.NewReader(base); !errors.Is(err, web.ErrInvalidBaseURL) {
			t.Errorf("NewReader(%q) error = %v, want ErrInvalidBaseURL", base, err)
		}
	}
}
