package dataset

import (
	"cmp"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/tile"
)

// DefaultQueueLength is the download concurrency bound used when none is given.
const DefaultQueueLength = 4

// QuadtileSet is a Dataset backed by a quadtree of tiles addressed by z/x/y.
type QuadtileSet struct {
	*base
	root *Tile

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

var _ Dataset = (*QuadtileSet)(nil)

func newQuadtileSet(source tile.Reader, closer io.Closer, opts []Option) *QuadtileSet {
	b := newBase(source, closer, opts)
	return &QuadtileSet{
		base:     b,
		root:     newTile(b, tile.Root, geom.Unbounded),
		inflight: make(map[string]struct{}),
	}
}

func (s *QuadtileSet) Root() *Tile {
	return s.root
}

// Ready downloads the root tile if it has not been requested yet and waits for it.
func (s *QuadtileSet) Ready(ctx context.Context) error {
	return s.root.Download(ctx)
}

// Extent returns the extent of the root tile; it is unbounded until the root is downloaded.
func (s *QuadtileSet) Extent() geom.Rect {
	return s.root.Extent()
}

// InFlight returns the sorted keys of the tiles being downloaded.
func (s *QuadtileSet) InFlight() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.inflight))
	for key := range s.inflight {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (s *QuadtileSet) inflightLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

type candidate struct {
	score float64
	code  uint64
	tile  *Tile
}

// DownloadMostNeededTiles scores every tile that has not been fetched by how much of bbox
// it covers and starts downloads from the best score down until queueLength downloads are
// in flight. Tiles that do not cover bbox, or whose first point index exceeds maxIx, are
// passed over. The call returns without waiting; finished downloads free their slots for
// later calls. A queueLength of zero or less means DefaultQueueLength.
// A bbox without positive area selects nothing.
func (s *QuadtileSet) DownloadMostNeededTiles(bbox geom.Rect, maxIx int64, queueLength int) {
	if queueLength <= 0 {
		queueLength = DefaultQueueLength
	}
	if !(bbox.Area() > 0) {
		s.logger.Debug("quadstream: empty viewport ignored", "bbox", bbox)
		return
	}
	if s.inflightLen() >= queueLength {
		return
	}

	var scores []candidate
	Visit(s, func(t *Tile) {
		switch t.State() {
		case Unattempted:
		case Failed:
			if s.retry != RetryOnNextPass {
				return
			}
		default:
			return
		}
		scores = append(scores, candidate{
			score: geom.Overlap(t.Extent(), bbox),
			code:  t.ID().Code(),
			tile:  t,
		})
	}, PreOrder, nil)

	// Ascending by score; among equal scores the lowest Hilbert code ends up last.
	slices.SortStableFunc(scores, func(a, b candidate) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(b.code, a.code)
	})

	for len(scores) > 0 && s.inflightLen() < queueLength {
		upnext := scores[len(scores)-1]
		scores = scores[:len(scores)-1]

		t := upnext.tile
		if minIx, _, ok := t.IxRange(); ok && minIx > maxIx {
			tileCandidatesSkipped.WithLabelValues(s.name, reasonBeyondIx).Inc()
			continue
		}
		if upnext.score <= 0 {
			tileCandidatesSkipped.WithLabelValues(s.name, reasonNoOverlap).Inc()
			continue
		}
		if !s.admit(t) {
			tileCandidatesSkipped.WithLabelValues(s.name, reasonInFlight).Inc()
		}
	}
}

// admit moves t to Started, records it in flight and downloads it in the background.
func (s *QuadtileSet) admit(t *Tile) bool {
	key := t.Key()

	s.mu.Lock()
	if _, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return false
	}
	if !t.begin() {
		s.mu.Unlock()
		return false
	}
	s.inflight[key] = struct{}{}
	inflight := len(s.inflight)
	s.mu.Unlock()

	tileAdmissions.WithLabelValues(s.name).Inc()
	tilesInFlight.WithLabelValues(s.name).Set(float64(inflight))
	s.logger.Debug("quadstream: tile download started", "tile", key, "in_flight", inflight)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		start := time.Now()
		err := t.fetch(s.ctx)
		tileDownloadLatency.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

		// Free the slot before publishing the outcome.
		s.release(key)
		t.finish(err)

		if err != nil {
			tileDownloads.WithLabelValues(s.name, resultFailed).Inc()
			s.logger.Warn("quadstream: tile download failed", "tile", key, "error", err)
			return
		}
		tileDownloads.WithLabelValues(s.name, resultComplete).Inc()
		s.logger.Debug("quadstream: tile download complete", "tile", key)
	}()
	return true
}

func (s *QuadtileSet) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	inflight := len(s.inflight)
	s.mu.Unlock()
	tilesInFlight.WithLabelValues(s.name).Set(float64(inflight))
}

// Wait blocks until every download started by the scheduler has finished.
// It must not be called concurrently with DownloadMostNeededTiles.
func (s *QuadtileSet) Wait() {
	s.wg.Wait()
}

// Close stops the decode workers and releases the tile source if the dataset opened it.
// Downloads still running fail.
func (s *QuadtileSet) Close() error {
	err := s.close()
	s.wg.Wait()
	return err
}
