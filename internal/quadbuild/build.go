// Package quadbuild builds quadtree tilesets from point sets.
//
// Each tile keeps up to Capacity points and hands the rest to its quadrants.
// Point indices are assigned breadth-first, so coarse tiles hold the lowest
// indices and a point index watermark selects a level of detail.
package quadbuild

import (
	"cmp"
	"errors"
	"slices"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/payload"
	"github.com/eak1mov/go-quadstream/tile"
)

var ErrInvalidOptions = errors.New("quadstream: invalid build options")

type Point struct {
	X     float64
	Y     float64
	Attrs map[string]any
}

type Stats struct {
	Tiles    int
	Points   int
	MaxDepth int
}

type config struct {
	Capacity int
	MaxDepth int
	Compress bool
	Extent   *geom.Rect
	Progress func(tile.ID)
}

type Option func(*config)

// WithCapacity sets the number of points kept by each tile before its quadrants (default 1000).
func WithCapacity(n int) Option {
	return func(c *config) { c.Capacity = n }
}

// WithMaxDepth sets the deepest tile level; tiles at that level keep all their points (default 8).
func WithMaxDepth(n int) Option {
	return func(c *config) { c.MaxDepth = n }
}

// WithCompression compresses tile payloads with zstd.
func WithCompression(compress bool) Option {
	return func(c *config) { c.Compress = compress }
}

// WithExtent sets the root extent instead of the bounding box of the points.
func WithExtent(extent geom.Rect) Option {
	return func(c *config) { c.Extent = &extent }
}

// WithProgress registers a callback invoked after each tile is written.
func WithProgress(fn func(tile.ID)) Option {
	return func(c *config) { c.Progress = fn }
}

type node struct {
	id       tile.ID
	extent   geom.Rect
	rows     []payload.Row
	children []*node
}

// Build partitions points into a quadtree and writes every tile to w.
// It calls w.Finalize once all tiles are written.
func Build(points []Point, w tile.Writer, opts ...Option) (Stats, error) {
	config := config{
		Capacity: 1000,
		MaxDepth: 8,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Capacity <= 0 || config.MaxDepth < 0 || config.MaxDepth >= 31 {
		return Stats{}, ErrInvalidOptions
	}

	extent := boundingBox(points)
	if config.Extent != nil {
		extent = *config.Extent
	}

	root := &node{id: tile.Root, extent: extent}
	nodes := []*node{}
	type pending struct {
		node   *node
		points []Point
	}
	queue := []pending{{node: root, points: points}}
	nextIx := int64(0)
	stats := Stats{Points: len(points)}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		n := current.node
		nodes = append(nodes, n)
		stats.MaxDepth = max(stats.MaxDepth, int(n.id.Z))

		keep := min(config.Capacity, len(current.points))
		if int(n.id.Z) == config.MaxDepth {
			keep = len(current.points)
		}
		for _, p := range current.points[:keep] {
			n.rows = append(n.rows, payload.Row{Ix: nextIx, X: p.X, Y: p.Y, Attrs: p.Attrs})
			nextIx++
		}

		var quadrants [4][]Point
		midX := (n.extent.X[0] + n.extent.X[1]) / 2
		midY := (n.extent.Y[0] + n.extent.Y[1]) / 2
		for _, p := range current.points[keep:] {
			q := 0
			if p.X >= midX {
				q |= 1
			}
			if p.Y >= midY {
				q |= 2
			}
			quadrants[q] = append(quadrants[q], p)
		}

		for q, childID := range n.id.Children() {
			if len(quadrants[q]) == 0 {
				continue
			}
			child := &node{id: childID, extent: n.extent.Quadrant(q)}
			n.children = append(n.children, child)
			queue = append(queue, pending{node: child, points: quadrants[q]})
		}
	}

	// Write along the Hilbert curve so neighbouring tiles stay close in the output.
	slices.SortFunc(nodes, func(a, b *node) int {
		return cmp.Compare(a.id.Code(), b.id.Code())
	})

	for _, n := range nodes {
		data, err := payload.Encode(n.payload(), config.Compress)
		if err != nil {
			return Stats{}, err
		}
		if err := w.WriteTile(n.id, data); err != nil {
			return Stats{}, err
		}
		stats.Tiles++
		if config.Progress != nil {
			config.Progress(n.id)
		}
	}

	if err := w.Finalize(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (n *node) payload() *payload.Tile {
	p := &payload.Tile{Extent: n.extent, Rows: n.rows}
	if p.Rows == nil {
		p.Rows = []payload.Row{}
	}
	for _, c := range n.children {
		child := payload.Child{Key: c.id.Key()}
		if len(c.rows) > 0 {
			minIx, maxIx := c.rows[0].Ix, c.rows[len(c.rows)-1].Ix
			child.MinIx, child.MaxIx = &minIx, &maxIx
		}
		p.Children = append(p.Children, child)
	}
	return p
}

func boundingBox(points []Point) geom.Rect {
	if len(points) == 0 {
		return geom.Rect{X: [2]float64{0, 1}, Y: [2]float64{0, 1}}
	}
	r := geom.Rect{
		X: [2]float64{points[0].X, points[0].X},
		Y: [2]float64{points[0].Y, points[0].Y},
	}
	for _, p := range points[1:] {
		r.X[0], r.X[1] = min(r.X[0], p.X), max(r.X[1], p.X)
		r.Y[0], r.Y[1] = min(r.Y[0], p.Y), max(r.Y[1], p.Y)
	}
	return r
}
