package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/internal/quadbuild"
	"github.com/eak1mov/go-quadstream/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type buildCmd struct {
	outputFormat string
	outputPath   string
	points       int
	capacity     int
	depth        int
	size         float64
	compress     bool
	seed         uint64
	logLevel     string
}

func (c *buildCmd) Name() string     { return "build" }
func (c *buildCmd) Synopsis() string { return "build a random point quadtree tileset" }
func (c *buildCmd) Usage() string {
	return "quadstream build -o <path> [-of <format> -n <points> -capacity <n> -depth <n> -zstd]\n"
}
func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format (mbtiles, pmtiles, xyz)")
	f.IntVar(&c.points, "n", 100_000, "Number of points")
	f.IntVar(&c.capacity, "capacity", 1000, "Points kept per tile")
	f.IntVar(&c.depth, "depth", 8, "Maximum tile depth")
	f.Float64Var(&c.size, "size", 1000, "Side of the square the points are drawn from")
	f.BoolVar(&c.compress, "zstd", false, "Compress tile payloads")
	f.Uint64Var(&c.seed, "seed", 1, "Random seed")
	f.StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func (c *buildCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.outputPath == "" {
		log.Println("missing output path")
		return subcommands.ExitUsageError
	}

	writer, err := openWriter(c.outputFormat, c.outputPath, newLogger(c.logLevel))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := writer.(io.Closer); ok {
		defer closer.Close()
	}

	extent := geom.Rect{X: [2]float64{0, c.size}, Y: [2]float64{0, c.size}}
	points := quadbuild.RandomPoints(c.points, extent, c.seed)

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	stats, err := quadbuild.Build(points, writer,
		quadbuild.WithCapacity(c.capacity),
		quadbuild.WithMaxDepth(c.depth),
		quadbuild.WithCompression(c.compress),
		quadbuild.WithExtent(extent),
		quadbuild.WithProgress(func(tile.ID) { bar.Add(1) }),
	)
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d points in %d tiles, depth %d\n", stats.Points, stats.Tiles, stats.MaxDepth)
	return subcommands.ExitSuccess
}
