package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/eak1mov/go-quadstream/dataset"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"github.com/segmentio/encoding/json"
)

type streamCmd struct {
	configPath string
	find       int64
}

func (c *streamCmd) Name() string     { return "stream" }
func (c *streamCmd) Synopsis() string { return "replay a scripted sequence of viewports against a tileset" }
func (c *streamCmd) Usage() string {
	return "quadstream stream -c <config.yaml> [-find <ix>]\n"
}
func (c *streamCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "c", "", "Session config file (yaml)")
	f.Int64Var(&c.find, "find", -1, "Point index to look up after streaming")
}

func (c *streamCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	conf, err := loadStreamConfig(c.configPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if c.find >= 0 {
		conf.Find = append(conf.Find, c.find)
	}

	retry, _ := conf.retryPolicy()
	opts := []dataset.Option{
		dataset.WithLogger(newLogger(conf.LogLevel)),
		dataset.WithRetryPolicy(retry),
	}
	if conf.Workers > 0 {
		opts = append(opts, dataset.WithWorkers(conf.Workers))
	}

	ds, err := dataset.Open(conf.Base, opts...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer ds.Close()

	if err := ds.Ready(ctx); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("extent x=%v y=%v\n", ds.Extent().X, ds.Extent().Y)

	for i, v := range conf.Viewports {
		if v.MaxIx != nil {
			ds.AdvanceMaxIx(*v.MaxIx)
		}
		maxIx := int64(math.MaxInt64)
		if ds.MaxIx() >= 0 {
			maxIx = ds.MaxIx()
		}

		bar := progressbar.NewOptions(v.Passes,
			progressbar.OptionSetDescription(fmt.Sprintf("viewport %d", i)),
			progressbar.OptionShowCount())
		for range v.Passes {
			ds.DownloadMostNeededTiles(v.BBox, maxIx, conf.QueueLength)
			ds.Wait()
			bar.Add(1)
		}
		bar.Finish()
		fmt.Println()
		printStates(ds)
	}

	encoder := json.NewEncoder(os.Stdout)
	for _, ix := range conf.Find {
		rows := dataset.FindPoint(ds, ix)
		if len(rows) == 0 {
			fmt.Printf("point %d: not loaded\n", ix)
			continue
		}
		for _, row := range rows {
			if err := encoder.Encode(row); err != nil {
				log.Println(err)
				return subcommands.ExitFailure
			}
		}
	}
	return subcommands.ExitSuccess
}

func printStates(ds dataset.Dataset) {
	counts := make(map[dataset.DownloadState]int)
	dataset.Visit(ds, func(t *dataset.Tile) { counts[t.State()]++ }, dataset.PreOrder, nil)
	for _, s := range []dataset.DownloadState{dataset.Unattempted, dataset.Started, dataset.Complete, dataset.Failed} {
		fmt.Printf("  %-12s %d\n", s, counts[s])
	}
}
