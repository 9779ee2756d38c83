// Package web provides a tile source served over HTTP from a base URL,
// where tiles are fetched from paths like "<base>/z/x/y.json".
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eak1mov/go-quadstream/tile"
)

var ErrInvalidBaseURL = errors.New("quadstream: invalid base url")

// ErrStatus is returned for responses other than 200 and 404.
var ErrStatus = errors.New("quadstream: unexpected http status")

const DefaultTimeout = 30 * time.Second

// Reader implements tile.Reader over HTTP.
type Reader struct {
	baseURL   string
	extension string
	client    *http.Client
}

type readerConfig struct {
	Client    *http.Client
	Extension string
}

type ReaderOption func(*readerConfig)

// WithClient sets the HTTP client used for fetching tiles.
func WithClient(client *http.Client) ReaderOption {
	return func(c *readerConfig) { c.Client = client }
}

// WithExtension sets the file extension appended to tile paths (default ".json").
func WithExtension(ext string) ReaderOption {
	return func(c *readerConfig) { c.Extension = ext }
}

// NewReader creates a new Reader for tiles served below baseURL.
func NewReader(baseURL string, opts ...ReaderOption) (*Reader, error) {
	config := readerConfig{
		Client:    &http.Client{Timeout: DefaultTimeout},
		Extension: ".json",
	}
	for _, opt := range opts {
		opt(&config)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}

	return &Reader{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		extension: config.Extension,
		client:    config.Client,
	}, nil
}

// TileURL returns the URL the tile is fetched from.
func (r *Reader) TileURL(tileID tile.ID) string {
	return fmt.Sprintf("%s/%d/%d/%d%s", r.baseURL, tileID.Z, tileID.X, tileID.Y, r.extension)
}

func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	return r.ReadTileContext(context.Background(), tileID)
}

// ReadTileContext is ReadTile bound to ctx.
func (r *Reader) ReadTileContext(ctx context.Context, tileID tile.ID) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.TileURL(tileID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return make([]byte, 0), nil
	default:
		return nil, fmt.Errorf("%w: %s %v", ErrStatus, resp.Status, tileID)
	}
}
