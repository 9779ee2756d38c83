package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/eak1mov/go-quadstream/mb"
	"github.com/eak1mov/go-quadstream/pm"
	"github.com/eak1mov/go-quadstream/tile"
	"github.com/eak1mov/go-quadstream/xyz"
)

func deduceFormat(format, filePath string) string {
	switch {
	case format != "":
		return format
	case strings.HasSuffix(filePath, ".mbtiles"):
		return "mbtiles"
	case strings.HasSuffix(filePath, ".pmtiles"):
		return "pmtiles"
	}
	return "xyz"
}

func openWriter(format, path string, logger *slog.Logger) (tile.Writer, error) {
	switch deduceFormat(format, path) {
	case "mbtiles":
		return mb.NewWriter(path, mb.WithLogger(logger), mb.WithMetadata(map[string]string{
			"format": "json",
			"name":   "quadstream points",
		}))
	case "pmtiles":
		return pm.NewWriter(path, pm.WithLogger(logger), pm.WithMetadata(pm.Metadata{
			Name:   "quadstream points",
			Format: "json",
		}))
	case "xyz":
		return xyz.NewWriter(xyz.DirPattern(path, ".json"))
	}
	return nil, fmt.Errorf("invalid output format: %q", format)
}

func openVisitor(format, path string) (tile.Visitor, error) {
	switch deduceFormat(format, path) {
	case "mbtiles":
		return mb.NewReader(path)
	case "pmtiles":
		return pm.NewFileReader(path)
	case "xyz":
		return xyz.NewReader(xyz.DirPattern(path, ".json"))
	}
	return nil, fmt.Errorf("invalid input format: %q", format)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
