package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/payload"
	"github.com/eak1mov/go-quadstream/tile"
)

// Tile is one quadtree node. Its table and children are published before the
// state becomes Complete, so a reader that observes Complete may use them.
type Tile struct {
	id    tile.ID
	owner *base
	state atomic.Int32

	mu       sync.Mutex
	extent   geom.Rect
	minIx    int64
	maxIx    int64
	ixKnown  bool
	children []*Tile
	table    *payload.Table
	err      error
	done     chan struct{}
}

func newTile(owner *base, id tile.ID, extent geom.Rect) *Tile {
	return &Tile{
		id:     id,
		owner:  owner,
		extent: extent,
		done:   make(chan struct{}),
	}
}

func (t *Tile) ID() tile.ID {
	return t.id
}

// Key returns the "z/x/y" identifier of the tile.
func (t *Tile) Key() string {
	return t.id.Key()
}

func (t *Tile) State() DownloadState {
	return DownloadState(t.state.Load())
}

func (t *Tile) Extent() geom.Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.extent
}

// IxRange returns the inclusive range of point indices held by the tile.
// The range may be announced by the parent before the tile is downloaded.
func (t *Tile) IxRange() (minIx, maxIx int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minIx, t.maxIx, t.ixKnown
}

// Children returns the child tiles. It is empty until the tile is Complete.
func (t *Tile) Children() []*Tile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.children
}

// Table returns the decoded rows, or nil until the tile is Complete.
func (t *Tile) Table() *payload.Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table
}

// Err returns the error of the last failed download.
func (t *Tile) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the current download attempt completes or fails and returns its error.
func (t *Tile) Wait(ctx context.Context) error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	select {
	case <-done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Download fetches and decodes the tile. When another download of the tile is
// already running, or the tile has already finished, it waits for that outcome instead.
func (t *Tile) Download(ctx context.Context) error {
	if !t.begin() {
		return t.Wait(ctx)
	}
	err := t.fetch(ctx)
	t.finish(err)
	return err
}

// begin moves the tile to Started. It reports false when the tile must not be downloaded now.
func (t *Tile) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.State() {
	case Unattempted:
	case Failed:
		if t.owner.retry != RetryOnNextPass {
			return false
		}
		t.done = make(chan struct{})
		t.err = nil
	default:
		return false
	}
	t.state.Store(int32(Started))
	return true
}

func (t *Tile) fetch(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("tile %v: %w", t.id, err)
		}
	}()

	data, err := t.owner.readTile(ctx, t.id)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrTileNotFound
	}

	decoded, err := t.owner.pool.Acquire().Decode(ctx, data)
	if err != nil {
		return err
	}

	children := make([]*Tile, 0, len(decoded.Children))
	for _, c := range decoded.Children {
		childID, err := tile.ParseKey(c.Key)
		if err != nil {
			return fmt.Errorf("%w: %w", payload.ErrInvalidPayload, err)
		}
		if childID.Z != t.id.Z+1 || childID.Parent() != t.id {
			return fmt.Errorf("%w: %v is not a child", payload.ErrInvalidPayload, childID)
		}
		extent := decoded.Extent.Quadrant(childID.Quadrant())
		if c.Extent != nil {
			extent = *c.Extent
		}
		child := newTile(t.owner, childID, extent)
		if c.MinIx != nil && c.MaxIx != nil {
			child.minIx, child.maxIx, child.ixKnown = *c.MinIx, *c.MaxIx, true
		}
		children = append(children, child)
	}

	table := decoded.Table()

	t.mu.Lock()
	t.extent = decoded.Extent
	if minIx, maxIx, ok := table.IxRange(); ok {
		t.minIx, t.maxIx, t.ixKnown = minIx, maxIx, true
	}
	t.children = children
	t.table = table
	t.mu.Unlock()
	return nil
}

func (t *Tile) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.err = err
		t.state.Store(int32(Failed))
	} else {
		t.state.Store(int32(Complete))
	}
	close(t.done)
}
