package testutil

import (
	"testing"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/payload"
	"github.com/eak1mov/go-quadstream/tile"
)

func Rect(x0, x1, y0, y1 float64) geom.Rect {
	return geom.Rect{X: [2]float64{x0, x1}, Y: [2]float64{y0, y1}}
}

// PutTile encodes p and stores it as tileID.
func PutTile(t testing.TB, s *MemStore, tileID tile.ID, p *payload.Tile) {
	t.Helper()
	data, err := payload.Encode(p, false)
	if err != nil {
		t.Fatalf("payload.Encode(%v) failed: %v", tileID, err)
	}
	if err := s.WriteTile(tileID, data); err != nil {
		t.Fatalf("WriteTile(%v) failed: %v", tileID, err)
	}
}

// QuadrantTree stores a tree of the given depth over [0,10]x[0,10] where every
// tile has all four children and holds rowsPerTile rows. Point indices grow
// breadth-first. It returns the number of tiles stored.
func QuadrantTree(t testing.TB, s *MemStore, depth int, rowsPerTile int) int {
	t.Helper()

	type item struct {
		id     tile.ID
		extent geom.Rect
	}
	var level []item
	level = append(level, item{id: tile.Root, extent: Rect(0, 10, 0, 10)})

	// Assign index ranges breadth-first before writing, so parents can announce them.
	ranges := make(map[tile.ID][2]int64)
	var order [][]item
	next := int64(0)
	for z := 0; z <= depth; z++ {
		order = append(order, level)
		var nextLevel []item
		for _, it := range level {
			ranges[it.id] = [2]int64{next, next + int64(rowsPerTile) - 1}
			next += int64(rowsPerTile)
			for q, childID := range it.id.Children() {
				nextLevel = append(nextLevel, item{id: childID, extent: it.extent.Quadrant(q)})
			}
		}
		level = nextLevel
	}

	count := 0
	for z, items := range order {
		for _, it := range items {
			r := ranges[it.id]
			p := &payload.Tile{Extent: it.extent, Rows: []payload.Row{}}
			for ix := r[0]; ix <= r[1]; ix++ {
				p.Rows = append(p.Rows, payload.Row{Ix: ix, X: it.extent.X[0], Y: it.extent.Y[0]})
			}
			if z < depth {
				for _, childID := range it.id.Children() {
					cr := ranges[childID]
					p.Children = append(p.Children, payload.Child{Key: childID.Key(), MinIx: &cr[0], MaxIx: &cr[1]})
				}
			}
			PutTile(t, s, it.id, p)
			count++
		}
	}
	return count
}
