// Package payload defines the tile payload document and its codec.
//
// A payload is a JSON document describing one quadtree node: its extent,
// its rows sorted by point index, and a manifest of its children.
// Payloads may be zstd-compressed; compression is detected from the frame magic.
package payload

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/encoding/json"
)

var ErrInvalidPayload = errors.New("quadstream: invalid tile payload")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Row is a single point of the dataset.
type Row struct {
	Ix    int64          `json:"ix"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Child announces a child tile before it is downloaded.
type Child struct {
	Key    string     `json:"key"`
	MinIx  *int64     `json:"min_ix,omitempty"`
	MaxIx  *int64     `json:"max_ix,omitempty"`
	Extent *geom.Rect `json:"extent,omitempty"`
}

// Tile is the decoded payload of one tile.
type Tile struct {
	Extent   geom.Rect `json:"extent"`
	Rows     []Row     `json:"rows"`
	Children []Child   `json:"children,omitempty"`
}

// Table returns the rows of the tile as a Table.
func (t *Tile) Table() *Table {
	return &Table{rows: t.Rows}
}

func (t *Tile) validate() error {
	if len(t.Children) > 4 {
		return fmt.Errorf("%w: %v children", ErrInvalidPayload, len(t.Children))
	}
	if !slices.IsSortedFunc(t.Rows, func(a, b Row) int { return cmp.Compare(a.Ix, b.Ix) }) {
		return fmt.Errorf("%w: rows are not sorted by ix", ErrInvalidPayload)
	}
	for i, c := range t.Children {
		if slices.ContainsFunc(t.Children[:i], func(prev Child) bool { return prev.Key == c.Key }) {
			return fmt.Errorf("%w: duplicate child %v", ErrInvalidPayload, c.Key)
		}
		if c.MinIx != nil && c.MaxIx != nil && *c.MinIx > *c.MaxIx {
			return fmt.Errorf("%w: child %v has min_ix > max_ix", ErrInvalidPayload, c.Key)
		}
	}
	return nil
}

var encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

// Encode serializes the tile, compressing it with zstd if requested.
func Encode(t *Tile, compress bool) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decoder decodes payloads. A Decoder is not safe for concurrent use;
// each decode worker owns one.
type Decoder struct {
	zstd *zstd.Decoder
}

func NewDecoder() (*Decoder, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &Decoder{zstd: dec}, nil
}

func (d *Decoder) Decode(data []byte) (*Tile, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		decompressed, err := d.zstd.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		data = decompressed
	}

	var t Tile
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *Decoder) Close() {
	d.zstd.Close()
}
