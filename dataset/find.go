package dataset

import "github.com/eak1mov/go-quadstream/payload"

// FindPoint returns every downloaded row with point index ix.
// Tiles partition the index space, so at most one row is expected.
func FindPoint(d Dataset, ix int64) []payload.Row {
	var rows []payload.Row
	for _, t := range Map(d, func(t *Tile) *Tile { return t }, PreOrder) {
		if t.State() != Complete {
			continue
		}
		table := t.Table()
		minIx, maxIx, ok := t.IxRange()
		if table == nil || !ok || ix < minIx || ix > maxIx {
			continue
		}
		if row, ok := table.Lookup(ix); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
