package dataset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	datasetLabel = "dataset"
	resultLabel  = "result"
	reasonLabel  = "reason"

	resultComplete = "complete"
	resultFailed   = "failed"

	reasonNoOverlap = "no_overlap"
	reasonBeyondIx  = "beyond_max_ix"
	reasonInFlight  = "in_flight"
)

var (
	tilesInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quadstream_tiles_in_flight",
		Help: "The number of tile downloads currently in flight.",
	}, []string{
		datasetLabel,
	})

	tileAdmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadstream_tile_admissions",
		Help: "The number of tile downloads started by the scheduler.",
	}, []string{
		datasetLabel,
	})

	tileDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadstream_tile_downloads",
		Help: "The number of finished tile downloads by result.",
	}, []string{
		datasetLabel,
		resultLabel,
	})

	tileDownloadLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quadstream_tile_download_latency",
		Help:    "The time to fetch and decode a tile, in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{
		datasetLabel,
	})

	tileCandidatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadstream_tile_candidates_skipped",
		Help: "The number of scored tiles the scheduler passed over, by reason.",
	}, []string{
		datasetLabel,
		reasonLabel,
	})
)
