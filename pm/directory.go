package pm

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// entry addresses a run of tiles sharing one payload, or a leaf directory when run is zero.
type entry struct {
	code   uint64
	offset uint64
	length uint32
	run    uint32
}

// appendDirectory serializes entries column by column: code deltas, runs, lengths, offsets.
// An offset that directly follows the previous entry is stored as zero.
func appendDirectory(buf []byte, entries []entry) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(entries)))

	var last uint64
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.code-last)
		last = e.code
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(e.run))
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(e.length))
	}
	for i, e := range entries {
		if i > 0 && e.offset == entries[i-1].offset+uint64(entries[i-1].length) {
			buf = binary.AppendUvarint(buf, 0)
		} else {
			buf = binary.AppendUvarint(buf, e.offset+1)
		}
	}
	return buf
}

type uvarints struct {
	data []byte
	err  error
}

func (r *uvarints) next() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data)
	if n <= 0 {
		r.err = fmt.Errorf("%w: truncated", ErrInvalidDirectory)
		return 0
	}
	r.data = r.data[n:]
	return v
}

func parseDirectory(data []byte) ([]entry, error) {
	r := uvarints{data: data}
	n := r.next()
	// Each entry takes at least four bytes.
	if n > uint64(len(r.data))/4 {
		return nil, fmt.Errorf("%w: %v entries in %v bytes", ErrInvalidDirectory, n, len(data))
	}

	entries := make([]entry, n)
	var last uint64
	for i := range entries {
		last += r.next()
		entries[i].code = last
	}
	for i := range entries {
		entries[i].run = uint32(r.next())
	}
	for i := range entries {
		entries[i].length = uint32(r.next())
	}
	for i := range entries {
		v := r.next()
		if v == 0 && i > 0 {
			entries[i].offset = entries[i-1].offset + uint64(entries[i-1].length)
		} else {
			entries[i].offset = v - 1
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return entries, nil
}

// mergeRuns folds consecutive codes that point at the same payload into one entry.
// entries must be sorted by code.
func mergeRuns(entries []entry) []entry {
	merged := entries[:0]
	for _, e := range entries {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.offset == e.offset && last.length == e.length && last.code+uint64(last.run) == e.code {
				last.run++
				continue
			}
		}
		merged = append(merged, e)
	}
	return merged
}

// findEntry returns the entry covering code, or the leaf directory that may contain it.
func findEntry(entries []entry, code uint64) (entry, bool) {
	i, found := slices.BinarySearchFunc(entries, code, func(e entry, code uint64) int {
		return cmp.Compare(e.code, code)
	})
	if found {
		return entries[i], true
	}
	if i == 0 {
		return entry{}, false
	}
	e := entries[i-1]
	if e.run == 0 || code < e.code+uint64(e.run) {
		return e, true
	}
	return entry{}, false
}

// layoutDirectories serializes entries into a root directory of at most rootLimit bytes,
// moving them into leaf directories when they do not fit.
func layoutDirectories(entries []entry, c Compression, rootLimit int) (root, leaves []byte, err error) {
	root, err = compress(appendDirectory(nil, entries), c)
	if err != nil || len(root) <= rootLimit {
		return root, nil, err
	}

	leafSize := max(1, int(math.Sqrt(float64(len(entries)))))
	for {
		var rootEntries []entry
		leaves = leaves[:0]
		for chunk := range slices.Chunk(entries, leafSize) {
			leaf, err := compress(appendDirectory(nil, chunk), c)
			if err != nil {
				return nil, nil, err
			}
			rootEntries = append(rootEntries, entry{
				code:   chunk[0].code,
				offset: uint64(len(leaves)),
				length: uint32(len(leaf)),
			})
			leaves = append(leaves, leaf...)
		}

		root, err = compress(appendDirectory(nil, rootEntries), c)
		if err != nil {
			return nil, nil, err
		}
		if len(root) <= rootLimit {
			return root, leaves, nil
		}
		if len(rootEntries) == 1 {
			return nil, nil, fmt.Errorf("%w: root limit of %v bytes is too small", ErrInvalidDirectory, rootLimit)
		}
		leafSize = max(leafSize+1, leafSize*6/5)
	}
}
