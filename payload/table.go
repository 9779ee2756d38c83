package payload

import "sort"

// Table holds the decoded rows of a tile, sorted by point index.
type Table struct {
	rows []Row
}

func NewTable(rows []Row) *Table {
	return &Table{rows: rows}
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Get returns the row at position i and whether it exists.
func (t *Table) Get(i int) (Row, bool) {
	if i < 0 || i >= len(t.rows) {
		return Row{}, false
	}
	return t.rows[i], true
}

// Rows returns the underlying rows. The caller must not modify them.
func (t *Table) Rows() []Row {
	return t.rows
}

// IxRange returns the smallest and largest point index in the table.
func (t *Table) IxRange() (minIx, maxIx int64, ok bool) {
	if len(t.rows) == 0 {
		return 0, 0, false
	}
	return t.rows[0].Ix, t.rows[len(t.rows)-1].Ix, true
}

// SearchIx returns the leftmost position at which ix could be inserted
// while keeping the index column sorted.
func (t *Table) SearchIx(ix int64) int {
	return sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Ix >= ix })
}

// Lookup returns the row with the given point index, if present.
func (t *Table) Lookup(ix int64) (Row, bool) {
	row, ok := t.Get(t.SearchIx(ix))
	if !ok || row.Ix != ix {
		return Row{}, false
	}
	return row, true
}
