package xyz

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/eak1mov/go-quadstream/tile"
)

// Reader implements tile.Reader and tile.Visitor for tiles stored as individual files.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// NewReader creates a new Reader for the given file pattern (e.g. "/home/user/tiles/{z}/{x}/{y}.json").
func NewReader(filePattern string) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	pathRegex, err := compilePattern(filePattern)
	if err != nil {
		return nil, err
	}
	return &Reader{
		filePattern: filePattern,
		rootDir:     rootDir(filePattern),
		pathRegexp:  pathRegex,
	}, nil
}

func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	tileData, err := os.ReadFile(formatPattern(r.filePattern, tileID))
	if errors.Is(err, fs.ErrNotExist) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil // unrelated file next to the tiles
		}

		var coords [3]uint32
		for i, name := range []string{"x", "y", "z"} {
			v, err := strconv.ParseUint(matches[r.pathRegexp.SubexpIndex(name)], 10, 32)
			if err != nil {
				return nil
			}
			coords[i] = uint32(v)
		}
		tileID := tile.ID{X: coords[0], Y: coords[1], Z: coords[2]}
		if !tileID.Valid() {
			return nil
		}

		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		return visitor(tileID, tileData)
	})
}
