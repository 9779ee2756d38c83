// Package xyz provides tile sources and sinks over a directory layout,
// where tiles are stored as individual files with paths like "/z/x/y.json".
package xyz

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-quadstream/tile"
)

var ErrInvalidPattern = errors.New("quadstream: invalid file pattern")

var placeholders = []string{"{x}", "{y}", "{z}"}

// DirPattern returns the file pattern of a tileset stored under baseDir
// with one file per tile named "<z>/<x>/<y><ext>".
func DirPattern(baseDir, ext string) string {
	return filepath.Join(baseDir, "{z}", "{x}", "{y}"+ext)
}

func validatePattern(pattern string) error {
	for _, p := range placeholders {
		if strings.Count(pattern, p) != 1 {
			return fmt.Errorf("%w: placeholder %v must appear exactly once", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, tileID tile.ID) string {
	return strings.NewReplacer(
		"{x}", strconv.FormatUint(uint64(tileID.X), 10),
		"{y}", strconv.FormatUint(uint64(tileID.Y), 10),
		"{z}", strconv.FormatUint(uint64(tileID.Z), 10),
	).Replace(pattern)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(pattern)
	for _, p := range placeholders {
		name := p[1:2]
		quoted = strings.Replace(quoted, regexp.QuoteMeta(p), "(?P<"+name+">\\d+)", 1)
	}
	re, err := regexp.Compile("^" + quoted + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

// rootDir returns the deepest directory shared by every path the pattern can produce.
func rootDir(pattern string) string {
	path0 := formatPattern(pattern, tile.ID{X: 0, Y: 0, Z: 0})
	path1 := formatPattern(pattern, tile.ID{X: 1, Y: 1, Z: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}
	return path0
}
