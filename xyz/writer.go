package xyz

import (
	"os"
	"path/filepath"

	"github.com/eak1mov/go-quadstream/tile"
)

// Writer implements tile.Writer for tiles stored as individual files.
type Writer struct {
	filePattern string
}

// NewWriter creates a new Writer for the given file pattern (e.g. "/home/user/tiles/{z}/{x}/{y}.json").
func NewWriter(filePattern string) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern: filePattern}, nil
}

func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	filePath := formatPattern(w.filePattern, tileID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, tileData, 0644)
}

// Finalize is a no-op: every tile is already on disk once WriteTile returns.
func (w *Writer) Finalize() error {
	return nil
}
