package web_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eak1mov/go-quadstream/web"
	"github.com/stretchr/testify/require"
)

func TestRangeReader(t *testing.T) {
	content := []byte("0123456789abcdef")
	var (
		mu     sync.Mutex
		ranges []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/ranged.bin", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ranges = append(ranges, r.Header.Get("Range"))
		mu.Unlock()
		http.ServeContent(w, r, "ranged.bin", time.Time{}, bytes.NewReader(content))
	})
	mux.HandleFunc("/plain.bin", func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	for _, path := range []string{"/ranged.bin", "/plain.bin"} {
		t.Run(path, func(t *testing.T) {
			reader, err := web.NewRangeReader(server.URL+path, web.WithClient(server.Client()))
			require.NoError(t, err)

			buf := make([]byte, 4)
			n, err := reader.ReadAt(buf, 10)
			require.NoError(t, err)
			require.Equal(t, 4, n)
			require.Equal(t, "abcd", string(buf))

			n, err = reader.ReadAt(buf, 14)
			require.ErrorIs(t, err, io.EOF)
			require.Equal(t, "ef", string(buf[:n]))
		})
	}
	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, ranges, "bytes=10-13")
}

func TestRangeReaderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	reader, err := web.NewRangeReader(server.URL+"/tiles.pmtiles", web.WithClient(server.Client()))
	require.NoError(t, err)
	_, err = reader.ReadAt(make([]byte, 8), 0)
	require.ErrorIs(t, err, web.ErrStatus)

	_, err = web.NewRangeReader("/local/tiles.pmtiles")
	require.ErrorIs(t, err, web.ErrInvalidBaseURL)
}
