package quadbuild

import (
	"math"
	"math/rand/v2"

	"github.com/eak1mov/go-quadstream/geom"
)

// RandomPoints returns n points inside extent, drawn from a few gaussian clusters
// so that the resulting tree is unevenly deep.
func RandomPoints(n int, extent geom.Rect, seed uint64) []Point {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	const clusters = 5
	var centers [clusters][2]float64
	for i := range centers {
		centers[i] = [2]float64{
			extent.X[0] + rng.Float64()*(extent.X[1]-extent.X[0]),
			extent.Y[0] + rng.Float64()*(extent.Y[1]-extent.Y[0]),
		}
	}
	spread := math.Min(extent.X[1]-extent.X[0], extent.Y[1]-extent.Y[0]) / 10

	points := make([]Point, 0, n)
	for len(points) < n {
		c := centers[rng.IntN(clusters)]
		x := c[0] + rng.NormFloat64()*spread
		y := c[1] + rng.NormFloat64()*spread
		if !extent.Contains(x, y) {
			continue
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}
