package dataset

// Order selects when Visit invokes its callback.
type Order int

const (
	// PreOrder invokes the callback as each tile is visited.
	PreOrder Order = iota
	// PostOrder invokes the callback after the walk, last visited tile first.
	PostOrder
)

// Visit walks the tree breadth-first from the root.
//
// filter decides whether the children of a tile are descended; a nil filter
// descends everywhere. Children of tiles that are not Complete are never
// descended regardless of the filter.
func Visit(d Dataset, fn func(*Tile), order Order, filter func(*Tile) bool) {
	queue := []*Tile{d.Root()}
	var after []*Tile

	for len(queue) > 0 {
		current := queue[0]
		queue[0] = nil
		queue = queue[1:]

		if order == PreOrder {
			fn(current)
		} else {
			after = append(after, current)
		}

		if filter != nil && !filter(current) {
			continue
		}
		// Only descend into downloaded tiles.
		if current.State() == Complete {
			queue = append(queue, current.Children()...)
		}
	}

	for i := len(after) - 1; i >= 0; i-- {
		fn(after[i])
	}
}

// Map calls fn on every visited tile and returns the results in call order.
func Map[T any](d Dataset, fn func(*Tile) T, order Order) []T {
	var results []T
	Visit(d, func(t *Tile) { results = append(results, fn(t)) }, order, nil)
	return results
}
