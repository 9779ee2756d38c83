package geom_test

import (
	"math"
	"testing"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/google/go-cmp/cmp"
)

func rect(x0, x1, y0, y1 float64) geom.Rect {
	return geom.Rect{X: [2]float64{x0, x1}, Y: [2]float64{y0, y1}}
}

func TestOverlap(t *testing.T) {
	for _, tc := range []struct {
		Name string
		Tile geom.Rect
		BBox geom.Rect
		Want float64
	}{
		{Name: "Equal", Tile: rect(0, 10, 0, 10), BBox: rect(0, 10, 0, 10), Want: 1},
		{Name: "DisjointX", Tile: rect(0, 1, 0, 1), BBox: rect(2, 3, 0, 1), Want: 0},
		{Name: "DisjointY", Tile: rect(0, 1, 0, 1), BBox: rect(0, 1, 5, 6), Want: 0},
		{Name: "DisjointBoth", Tile: rect(0, 1, 0, 1), BBox: rect(-3, -2, -3, -2), Want: 0},
		{Name: "ContainedTile", Tile: rect(2, 4, 2, 4), BBox: rect(0, 10, 0, 10), Want: 0.04},
		{Name: "TileContainsBBox", Tile: rect(0, 10, 0, 10), BBox: rect(2, 4, 2, 4), Want: 1},
		{Name: "HalfCovered", Tile: rect(0, 5, 0, 10), BBox: rect(0, 10, 0, 10), Want: 0.5},
		{Name: "Quadrant", Tile: rect(0, 5, 0, 5), BBox: rect(0, 5, 0, 5), Want: 1},
		{Name: "TouchingEdge", Tile: rect(5, 10, 0, 5), BBox: rect(0, 5, 0, 5), Want: 0},
		{Name: "InvertedX", Tile: rect(3, 1, 0, 10), BBox: rect(0, 10, 0, 10), Want: geom.OverlapEmptyX},
		{Name: "InvertedY", Tile: rect(0, 10, 3, 1), BBox: rect(0, 10, 0, 10), Want: geom.OverlapEmptyY},
		{Name: "InvertedBoth", Tile: rect(3, 1, 3, 1), BBox: rect(0, 10, 0, 10), Want: geom.OverlapEmptyBoth},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			if got := geom.Overlap(tc.Tile, tc.BBox); got != tc.Want {
				t.Errorf("Overlap(%v, %v) = %v, want = %v", tc.Tile, tc.BBox, got, tc.Want)
			}
		})
	}
}

func TestOverlapContainment(t *testing.T) {
	container := rect(0, 10, 0, 10)
	contained := rect(1, 3, 1, 5)
	if got := geom.Overlap(contained, container); got != contained.Area()/container.Area() {
		t.Errorf("Overlap(contained, container) = %v, want = %v", got, contained.Area()/container.Area())
	}
	if got := geom.Overlap(container, contained); got != 1 {
		t.Errorf("Overlap(container, contained) = %v, want = 1", got)
	}
}

func TestOverlapPointViewport(t *testing.T) {
	if got := geom.Overlap(rect(0, 5, 0, 5), rect(2, 2, 2, 2)); !math.IsNaN(got) {
		t.Errorf("Overlap(tile, point) = %v, want = NaN", got)
	}
}

func TestQuadrant(t *testing.T) {
	r := rect(0, 10, 20, 40)
	want := []geom.Rect{
		rect(0, 5, 20, 30),
		rect(5, 10, 20, 30),
		rect(0, 5, 30, 40),
		rect(5, 10, 30, 40),
	}
	for q, w := range want {
		if diff := cmp.Diff(w, r.Quadrant(q)); diff != "" {
			t.Errorf("Quadrant(%v) mismatch (-want+got):\n%v", q, diff)
		}
	}
}

func TestContains(t *testing.T) {
	r := rect(0, 1, 0, 1)
	if !r.Contains(0, 1) || !r.Contains(0.5, 0.5) {
		t.Errorf("Contains rejected a point inside %v", r)
	}
	if r.Contains(1.5, 0.5) {
		t.Errorf("Contains accepted a point outside %v", r)
	}
}
