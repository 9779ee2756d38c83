// Package dataset manages progressive, priority-ordered streaming of a quadtree
// of point tiles.
//
// A rendering front end calls DownloadMostNeededTiles on every viewport change;
// the dataset scores the tiles that have not been fetched yet by their overlap
// with the viewport and starts the most valuable downloads, never keeping more
// than a bounded number in flight. Downloaded tiles are decoded on a small pool
// of workers and can then be traversed with Visit and Map or queried with FindPoint.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/mb"
	"github.com/eak1mov/go-quadstream/pm"
	"github.com/eak1mov/go-quadstream/tile"
	"github.com/eak1mov/go-quadstream/web"
	"github.com/eak1mov/go-quadstream/worker"
	"github.com/eak1mov/go-quadstream/xyz"
	"github.com/google/uuid"
)

var (
	ErrNotBaseURL   = errors.New("quadstream: tilesets must be opened from a base url")
	ErrTileNotFound = errors.New("quadstream: tile not found")
)

// Dataset is the capability set shared by tile-tree variants.
type Dataset interface {
	// Root returns the root tile.
	Root() *Tile

	// Ready downloads the root tile if needed and waits for it.
	Ready(ctx context.Context) error

	// Extent returns the coordinate bounds of the dataset.
	Extent() geom.Rect

	// DownloadMostNeededTiles starts downloads of the tiles that matter most for bbox,
	// keeping at most queueLength downloads in flight. It does not wait for them.
	DownloadMostNeededTiles(bbox geom.Rect, maxIx int64, queueLength int)
}

// contextReader is implemented by sources that can bind a read to a context.
type contextReader interface {
	ReadTileContext(ctx context.Context, tileID tile.ID) ([]byte, error)
}

// base holds the state every dataset variant owns: the tile source,
// the decode pool, the point index watermark and the session identity.
type base struct {
	id     uuid.UUID
	name   string
	source tile.Reader
	closer io.Closer
	pool   *worker.Pool
	logger *slog.Logger
	retry  RetryPolicy
	maxIx  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

func (b *base) readTile(ctx context.Context, tileID tile.ID) ([]byte, error) {
	if r, ok := b.source.(contextReader); ok {
		return r.ReadTileContext(ctx, tileID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.source.ReadTile(tileID)
}

// ID returns the random session identifier of the dataset.
func (b *base) ID() uuid.UUID {
	return b.id
}

// Name returns the dataset name used in logs and metrics.
func (b *base) Name() string {
	return b.name
}

// MaxIx returns the highest point index known to be relevant.
func (b *base) MaxIx() int64 {
	return b.maxIx.Load()
}

// AdvanceMaxIx raises the point index watermark. Lower values are ignored.
func (b *base) AdvanceMaxIx(ix int64) {
	for {
		current := b.maxIx.Load()
		if ix <= current || b.maxIx.CompareAndSwap(current, ix) {
			return
		}
	}
}

// Pool returns the decode worker pool. Workers start on first use.
func (b *base) Pool() *worker.Pool {
	return b.pool
}

func (b *base) close() error {
	b.cancel()
	err := b.pool.Close()
	if b.closer != nil {
		err = errors.Join(err, b.closer.Close())
	}
	return err
}

type config struct {
	Name    string
	Logger  *slog.Logger
	Workers int
	Retry   RetryPolicy
}

type Option func(*config)

// WithName sets the dataset name used in logs and metric labels.
func WithName(name string) Option {
	return func(c *config) { c.Name = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// WithWorkers sets the number of decode workers (default worker.DefaultSize).
func WithWorkers(n int) Option {
	return func(c *config) { c.Workers = n }
}

// WithRetryPolicy sets what happens to tiles whose download failed (default RetryNever).
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *config) { c.Retry = p }
}

func newBase(source tile.Reader, closer io.Closer, opts []Option) *base {
	config := config{
		Name:    "default",
		Logger:  slog.New(slog.DiscardHandler),
		Workers: worker.DefaultSize,
	}
	for _, opt := range opts {
		opt(&config)
	}

	b := &base{
		id:     uuid.New(),
		name:   config.Name,
		source: source,
		closer: closer,
		retry:  config.Retry,
	}
	b.logger = config.Logger.With("dataset", b.name, "session", b.id.String())
	b.pool = worker.NewPool(worker.WithSize(config.Workers), worker.WithLogger(b.logger))
	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.maxIx.Store(-1)
	return b
}

var tilePathRegexp = regexp.MustCompile(`(/[0-9]+){3}`)

// Open opens a quadtree tileset by its base location: a .pmtiles archive (local or
// http(s)), an http(s) URL serving "<z>/<x>/<y>.json", an .mbtiles file, or a directory
// of "<z>/<x>/<y>.json" files. The location must point at the tileset, not at one of its tiles.
//
// Unless WithName is given, the dataset is named after the kind of source
// ("pmtiles", "web", "mbtiles" or "xyz"); the location itself is only logged.
//
// Opening .mbtiles files requires the sqlite3 driver to be registered
// (e.g. import _ "github.com/mattn/go-sqlite3").
func Open(baseURL string, opts ...Option) (*QuadtileSet, error) {
	if tilePathRegexp.MatchString(baseURL) {
		return nil, fmt.Errorf("%w: %q", ErrNotBaseURL, baseURL)
	}

	kind, source, closer, err := openSource(baseURL)
	if err != nil {
		return nil, err
	}
	s := newQuadtileSet(source, closer, append([]Option{WithName(kind)}, opts...))
	s.logger = s.logger.With("source", baseURL)
	return s, nil
}

func openSource(baseURL string) (string, tile.Reader, io.Closer, error) {
	remote := strings.HasPrefix(baseURL, "http://") || strings.HasPrefix(baseURL, "https://")
	switch {
	case strings.HasSuffix(baseURL, ".pmtiles") && remote:
		ranges, err := web.NewRangeReader(baseURL)
		if err != nil {
			return "", nil, nil, err
		}
		reader, err := pm.NewReader(ranges)
		if err != nil {
			return "", nil, nil, err
		}
		return "pmtiles", reader, nil, nil
	case strings.HasSuffix(baseURL, ".pmtiles"):
		reader, err := pm.NewFileReader(baseURL)
		if err != nil {
			return "", nil, nil, err
		}
		return "pmtiles", reader, reader, nil
	case remote:
		reader, err := web.NewReader(baseURL)
		if err != nil {
			return "", nil, nil, err
		}
		return "web", reader, nil, nil
	case strings.HasSuffix(baseURL, ".mbtiles"):
		reader, err := mb.NewReader(baseURL)
		if err != nil {
			return "", nil, nil, err
		}
		return "mbtiles", reader, reader, nil
	default:
		reader, err := xyz.NewReader(xyz.DirPattern(baseURL, ".json"))
		if err != nil {
			return "", nil, nil, err
		}
		return "xyz", reader, nil, nil
	}
}

// New creates a quadtree dataset reading tiles from source.
// The caller keeps ownership of source.
func New(source tile.Reader, opts ...Option) *QuadtileSet {
	return newQuadtileSet(source, nil, opts)
}
