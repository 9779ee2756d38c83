package pm

import (
	"bufio"
	"cmp"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/eak1mov/go-quadstream/tile"
	"github.com/segmentio/encoding/json"
)

var ErrFinalized = errors.New("quadstream: pmtiles archive already finalized")

// Writer implements tile.Writer producing a PMTiles archive.
// Identical payloads are stored once.
type Writer struct {
	logger *slog.Logger
	file   *os.File
	header header

	data       *bufio.Writer
	dataLength uint64
	lastCode   uint64
	rootLimit  int

	entries  []entry
	contents map[uint64]int // payload hash -> index of the entry that stored it
}

type writerConfig struct {
	Logger      *slog.Logger
	Metadata    *Metadata
	Compression Compression
	RootLimit   int
}

type WriterOption func(*writerConfig)

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// WithMetadata stores md as the archive metadata document.
func WithMetadata(md Metadata) WriterOption {
	return func(c *writerConfig) { c.Metadata = &md }
}

// WithCompression sets the compression of directories and metadata (default zstd).
func WithCompression(compression Compression) WriterOption {
	return func(c *writerConfig) { c.Compression = compression }
}

func withRootLimit(limit int) WriterOption {
	return func(c *writerConfig) { c.RootLimit = limit }
}

// NewWriter creates the archive at filePath. Tiles are appended as they are written;
// directories and the header are written by Finalize.
func NewWriter(filePath string, opts ...WriterOption) (w *Writer, err error) {
	config := writerConfig{
		Logger:      slog.New(slog.DiscardHandler),
		Compression: CompressionZstd,
		RootLimit:   rootMaxBytes,
	}
	for _, opt := range opts {
		opt(&config)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	h := header{
		Magic:               magic,
		Version:             version,
		InternalCompression: config.Compression,
		Clustered:           true,
	}
	offset := uint64(rootOffset + rootMaxBytes)
	if _, err = file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	if config.Metadata != nil {
		data, err := json.Marshal(config.Metadata)
		if err != nil {
			return nil, err
		}
		if data, err = compress(data, config.Compression); err != nil {
			return nil, err
		}
		if _, err = file.Write(data); err != nil {
			return nil, err
		}
		h.MetadataOffset = offset
		h.MetadataLength = uint64(len(data))
		offset += h.MetadataLength
	}
	h.DataOffset = offset

	return &Writer{
		logger:    config.Logger,
		file:      file,
		header:    h,
		data:      bufio.NewWriter(file),
		rootLimit: config.RootLimit,
		contents:  make(map[uint64]int),
	}, nil
}

// WriteTile appends the tile payload. Empty payloads are not stored.
func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	if w.data == nil {
		return ErrFinalized
	}
	if len(tileData) == 0 {
		return nil
	}

	code := tileID.Code()
	if len(w.entries) > 0 && code <= w.lastCode {
		w.header.Clustered = false
	}
	w.lastCode = code

	if len(w.entries) == 0 {
		w.header.MinZoom = uint8(tileID.Z)
	}
	w.header.MinZoom = min(w.header.MinZoom, uint8(tileID.Z))
	w.header.MaxZoom = max(w.header.MaxZoom, uint8(tileID.Z))

	hash := xxhash.Sum64(tileData)
	if i, ok := w.contents[hash]; ok && w.entries[i].length == uint32(len(tileData)) {
		stored := w.entries[i]
		w.entries = append(w.entries, entry{code: code, offset: stored.offset, length: stored.length, run: 1})
		return nil
	}

	if _, err := w.data.Write(tileData); err != nil {
		return err
	}
	w.contents[hash] = len(w.entries)
	w.entries = append(w.entries, entry{code: code, offset: w.dataLength, length: uint32(len(tileData)), run: 1})
	w.dataLength += uint64(len(tileData))
	return nil
}

// Finalize writes the directories and the header and closes the file.
func (w *Writer) Finalize() error {
	if w.data == nil {
		return ErrFinalized
	}
	if err := w.data.Flush(); err != nil {
		return err
	}
	w.data = nil

	slices.SortStableFunc(w.entries, func(a, b entry) int { return cmp.Compare(a.code, b.code) })
	w.header.AddressedTiles = uint64(len(w.entries))
	w.header.TileContents = uint64(len(w.contents))
	w.header.DataLength = w.dataLength

	entries := mergeRuns(w.entries)
	w.header.TileEntries = uint64(len(entries))

	root, leaves, err := layoutDirectories(entries, w.header.InternalCompression, w.rootLimit)
	if err != nil {
		return err
	}
	w.logger.Debug("quadstream: pmtiles directories",
		"tiles", w.header.AddressedTiles, "entries", w.header.TileEntries,
		"root_bytes", len(root), "leaf_bytes", len(leaves))

	w.header.LeavesOffset = w.header.DataOffset + w.dataLength
	w.header.LeavesLength = uint64(len(leaves))
	if _, err := w.file.WriteAt(leaves, int64(w.header.LeavesOffset)); err != nil {
		return err
	}

	w.header.RootOffset = rootOffset
	w.header.RootLength = uint64(len(root))
	if _, err := w.file.WriteAt(root, rootOffset); err != nil {
		return err
	}
	if _, err := w.file.WriteAt(w.header.encode(), 0); err != nil {
		return err
	}

	err = w.file.Close()
	w.file = nil
	return err
}

// Close releases the file. An archive closed before Finalize is incomplete.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
