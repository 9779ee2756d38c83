// Package tile provides quadtree tile identifiers and the tile source interfaces.
package tile

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/google/hilbert"
)

var ErrInvalidKey = errors.New("quadstream: invalid tile key")

// ID represents tile coordinates in the quadtree (depth Z, column X, row Y).
type ID struct {
	X uint32
	Y uint32
	Z uint32
}

// Root is the single tile at depth zero covering the whole dataset.
var Root = ID{}

func (t ID) Valid() bool {
	return t.Z < 32 && t.X < (1<<t.Z) && t.Y < (1<<t.Z)
}

// Key returns the stable "z/x/y" path identifier of the tile.
func (t ID) Key() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

func (t ID) String() string {
	return t.Key()
}

// ParseKey parses a "z/x/y" key produced by ID.Key.
func ParseKey(key string) (ID, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	var values [3]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return ID{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		values[i] = uint32(v)
	}
	tileID := ID{Z: values[0], X: values[1], Y: values[2]}
	if !tileID.Valid() {
		return ID{}, fmt.Errorf("%w: %q out of range", ErrInvalidKey, key)
	}
	return tileID, nil
}

// Children returns the four child tiles in quadrant order:
// (low x, low y), (high x, low y), (low x, high y), (high x, high y).
func (t ID) Children() [4]ID {
	x, y, z := t.X*2, t.Y*2, t.Z+1
	return [4]ID{
		{X: x, Y: y, Z: z},
		{X: x + 1, Y: y, Z: z},
		{X: x, Y: y + 1, Z: z},
		{X: x + 1, Y: y + 1, Z: z},
	}
}

// Parent returns the parent tile. The root is its own parent.
func (t ID) Parent() ID {
	if t.Z == 0 {
		return t
	}
	return ID{X: t.X / 2, Y: t.Y / 2, Z: t.Z - 1}
}

// Quadrant returns the position of the tile inside its parent (0..3, see Children).
func (t ID) Quadrant() int {
	return int(t.X&1) | int(t.Y&1)<<1
}

// Code returns the position of the tile on the Hilbert curve, counting all tiles
// of lower depth first. Codes are unique across the whole tree.
func (t ID) Code() uint64 {
	h, _ := hilbert.NewHilbert(1 << t.Z)
	tileCode, _ := h.MapInverse(int(t.X), int(t.Y))

	tilesCount := (1<<(t.Z*2) - 1) / 3
	return uint64(tileCode + tilesCount)
}

// FromCode is the inverse of ID.Code.
func FromCode(tileCode uint64) ID {
	z := (bits.Len64(3*tileCode+1) - 1) / 2
	tilesCount := (1<<(z*2) - 1) / 3

	h, _ := hilbert.NewHilbert(1 << z)
	x, y, _ := h.Map(int(tileCode) - tilesCount)

	return ID{X: uint32(x), Y: uint32(y), Z: uint32(z)}
}

// Writer defines an interface for writing tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(tileID ID, tileData []byte) error

	// Finalize completes the writing process: flushes buffers, writes indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// It returns the tile data or an error if the tile cannot be read.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(tileID ID) ([]byte, error)
}

type Visitor interface {
	// VisitTiles visits all tiles in the tileset, calling the visitor for each.
	// It returns an error if visiting fails.
	// Order of tiles, upfront cpu and memory consumption are implementation-defined.
	VisitTiles(visitor func(ID, []byte) error) error
}
