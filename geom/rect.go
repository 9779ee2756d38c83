// Package geom provides the axis-aligned rectangles tiles and viewports are described with.
package geom

// Rect is an axis-aligned rectangle with closed intervals on both axes.
type Rect struct {
	X [2]float64 `json:"x" yaml:"x"`
	Y [2]float64 `json:"y" yaml:"y"`
}

// Unbounded covers any coordinate a dataset may reasonably hold.
var Unbounded = Rect{
	X: [2]float64{-1e16, 1e16},
	Y: [2]float64{-1e16, 1e16},
}

func (r Rect) Area() float64 {
	return (r.X[1] - r.X[0]) * (r.Y[1] - r.Y[0])
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X[0] && x <= r.X[1] && y >= r.Y[0] && y <= r.Y[1]
}

// Quadrant returns one quarter of r: bit 0 of q selects the high x half,
// bit 1 selects the high y half.
func (r Rect) Quadrant(q int) Rect {
	midX := (r.X[0] + r.X[1]) / 2
	midY := (r.Y[0] + r.Y[1]) / 2
	result := r
	if q&1 == 0 {
		result.X[1] = midX
	} else {
		result.X[0] = midX
	}
	if q&2 == 0 {
		result.Y[1] = midY
	} else {
		result.Y[0] = midY
	}
	return result
}

// Sentinel overlap values for intersections that are empty on one or both axes.
// They only tell the cases apart and never describe an area.
const (
	OverlapEmptyX    = -1.0
	OverlapEmptyY    = -2.0
	OverlapEmptyBoth = -3.0
)

// Overlap returns the area of the intersection of c and bbox as a fraction of the area of bbox.
// Disjoint rectangles score 0. An intersection that is inverted on x, y or both
// scores OverlapEmptyX, OverlapEmptyY or OverlapEmptyBoth.
// The result is NaN when bbox has zero area.
func Overlap(c, bbox Rect) float64 {
	if c.X[0] > bbox.X[1] ||
		c.X[1] < bbox.X[0] ||
		c.Y[0] > bbox.Y[1] ||
		c.Y[1] < bbox.Y[0] {
		return 0
	}

	intersection := Rect{
		X: [2]float64{max(bbox.X[0], c.X[0]), min(bbox.X[1], c.X[1])},
		Y: [2]float64{max(bbox.Y[0], c.Y[0]), min(bbox.Y[1], c.Y[1])},
	}

	disqualify := 0.0
	if intersection.X[0] > intersection.X[1] {
		disqualify -= 1
	}
	if intersection.Y[0] > intersection.Y[1] {
		disqualify -= 2
	}
	if disqualify < 0 {
		return disqualify
	}
	return intersection.Area() / bbox.Area()
}
