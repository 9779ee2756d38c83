package pm

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/tile"
	"github.com/segmentio/encoding/json"
)

// Directories nest at most this deep (root plus leaves).
const maxDirectoryDepth = 4

// Metadata is the JSON document stored in the archive.
type Metadata struct {
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Format      string     `json:"format,omitempty"`
	Extent      *geom.Rect `json:"extent,omitempty"`
}

// Reader implements tile.Reader and tile.Visitor over a PMTiles archive.
// It is safe for concurrent use. Leaf directories are decoded once and cached.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer
	header header
	root   []entry

	mu     sync.Mutex
	leaves map[uint64][]entry
}

// NewFileReader opens the archive at filePath.
func NewFileReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads an archive through src, for example an *os.File or a web.RangeReader.
// Closing the Reader does not close src.
func NewReader(src io.ReaderAt) (*Reader, error) {
	data, err := readAt(src, 0, headerLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		src:    src,
		header: h,
		leaves: make(map[uint64][]entry),
	}
	if r.root, err = r.readDirectory(h.RootOffset, h.RootLength); err != nil {
		return nil, err
	}
	return r, nil
}

func readAt(src io.ReaderAt, offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := src.ReadAt(buf, int64(offset))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadMetadata decodes the metadata document. Archives without one yield zero Metadata.
func (r *Reader) ReadMetadata() (Metadata, error) {
	var md Metadata
	if r.header.MetadataLength == 0 {
		return md, nil
	}
	data, err := readAt(r.src, r.header.MetadataOffset, r.header.MetadataLength)
	if err != nil {
		return md, err
	}
	if data, err = decompress(data, r.header.InternalCompression); err != nil {
		return md, err
	}
	err = json.Unmarshal(data, &md)
	return md, err
}

func (r *Reader) readDirectory(offset, length uint64) ([]entry, error) {
	data, err := readAt(r.src, offset, length)
	if err != nil {
		return nil, err
	}
	if data, err = decompress(data, r.header.InternalCompression); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	return parseDirectory(data)
}

func (r *Reader) leaf(e entry) ([]entry, error) {
	r.mu.Lock()
	entries, ok := r.leaves[e.offset]
	r.mu.Unlock()
	if ok {
		return entries, nil
	}

	entries, err := r.readDirectory(r.header.LeavesOffset+e.offset, uint64(e.length))
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.leaves[e.offset] = entries
	r.mu.Unlock()
	return entries, nil
}

// ReadTile returns the tile payload, or an empty slice if the archive does not hold the tile.
func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	code := tileID.Code()
	dir := r.root
	for range maxDirectoryDepth {
		e, ok := findEntry(dir, code)
		if !ok {
			return []byte{}, nil
		}
		if e.run > 0 {
			return readAt(r.src, r.header.DataOffset+e.offset, uint64(e.length))
		}
		var err error
		if dir, err = r.leaf(e); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: nested deeper than %v levels", ErrInvalidDirectory, maxDirectoryDepth)
}

// VisitTiles calls visitor for every addressed tile in Hilbert order.
// Tiles of one run share the same payload slice.
func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	var walk func(entries []entry, depth int) error
	walk = func(entries []entry, depth int) error {
		if depth >= maxDirectoryDepth {
			return fmt.Errorf("%w: nested deeper than %v levels", ErrInvalidDirectory, maxDirectoryDepth)
		}
		for _, e := range entries {
			if e.run == 0 {
				leaf, err := r.leaf(e)
				if err != nil {
					return err
				}
				if err := walk(leaf, depth+1); err != nil {
					return err
				}
				continue
			}
			data, err := readAt(r.src, r.header.DataOffset+e.offset, uint64(e.length))
			if err != nil {
				return err
			}
			for i := range uint64(e.run) {
				if err := visitor(tile.FromCode(e.code+i), data); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(r.root, 0)
}
