package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/eak1mov/go-quadstream/payload"
	"github.com/eak1mov/go-quadstream/pm"
	"github.com/eak1mov/go-quadstream/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type inspectCmd struct {
	inputFormat string
	inputPath   string
}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "count tiles and points per depth" }
func (c *inspectCmd) Usage() string {
	return "quadstream inspect -i <path> [-if <format>]\n"
}
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format (mbtiles, pmtiles, xyz)")
}

type depthStats struct {
	tiles  int
	points int
	bytes  int
}

func (c *inspectCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, err := openVisitor(c.inputFormat, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	decoder, err := payload.NewDecoder()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer decoder.Close()

	if archive, ok := reader.(*pm.Reader); ok {
		md, err := archive.ReadMetadata()
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		fmt.Printf("name: %q, format: %q\n", md.Name, md.Format)
	}

	perDepth := make(map[uint32]*depthStats)
	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	for tileID, tileData := range tile.IterTiles(reader) {
		p, err := decoder.Decode(tileData)
		if err != nil {
			bar.Finish()
			fmt.Println()
			log.Printf("tile %v: %v", tileID, err)
			return subcommands.ExitFailure
		}
		s, ok := perDepth[tileID.Z]
		if !ok {
			s = &depthStats{}
			perDepth[tileID.Z] = s
		}
		s.tiles++
		s.points += len(p.Rows)
		s.bytes += len(tileData)
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	depths := make([]uint32, 0, len(perDepth))
	for z := range perDepth {
		depths = append(depths, z)
	}
	slices.Sort(depths)

	fmt.Printf("%5s %8s %10s %12s\n", "depth", "tiles", "points", "bytes")
	for _, z := range depths {
		s := perDepth[z]
		fmt.Printf("%5d %8d %10d %12d\n", z, s.tiles, s.points, s.bytes)
	}
	return subcommands.ExitSuccess
}
