// Package pm stores quadtree tilesets in a single PMTiles v3 archive.
//
// Tiles are addressed by their Hilbert code (tile.ID.Code). The archive keeps
// a root directory right after the header, optional leaf directories after the
// tile data, and a JSON metadata document. Directories and metadata are
// compressed with the archive's internal compression; tile payloads are stored as given.
package pm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidHeader    = errors.New("quadstream: invalid pmtiles header")
	ErrInvalidVersion   = errors.New("quadstream: unsupported pmtiles version")
	ErrInvalidDirectory = errors.New("quadstream: invalid pmtiles directory")
)

type Compression uint8

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionBrotli
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	}
	return "unknown"
}

const (
	headerLength = 127
	version      = 3

	// The header and the root directory must fit in the first 16 KiB.
	rootOffset   = headerLength
	rootMaxBytes = 16<<10 - headerLength
)

var magic = [7]byte{'P', 'M', 'T', 'i', 'l', 'e', 's'}

// header is the fixed-size archive header. Field order is the on-disk order.
type header struct {
	Magic               [7]byte
	Version             uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeavesOffset        uint64
	LeavesLength        uint64
	DataOffset          uint64
	DataLength          uint64
	AddressedTiles      uint64
	TileEntries         uint64
	TileContents        uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            uint8
	MinZoom             uint8
	MaxZoom             uint8
	MinPosition         [2]int32
	MaxPosition         [2]int32
	CenterZoom          uint8
	CenterPosition      [2]int32
}

func (h *header) encode() []byte {
	data, err := binary.Append(make([]byte, 0, headerLength), binary.LittleEndian, h)
	if err != nil {
		panic(err) // fixed-size struct
	}
	return data
}

func decodeHeader(data []byte) (header, error) {
	var h header
	if len(data) < headerLength {
		return h, fmt.Errorf("%w: %v bytes", ErrInvalidHeader, len(data))
	}
	if _, err := binary.Decode(data[:headerLength], binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if h.Magic != magic {
		return h, ErrInvalidHeader
	}
	if h.Version != version {
		return h, fmt.Errorf("%w: %v", ErrInvalidVersion, h.Version)
	}
	return h, nil
}
