package dataset

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/eak1mov/go-quadstream/internal/testutil"
	"github.com/eak1mov/go-quadstream/tile"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSchedulerMetrics(t *testing.T) {
	store := testutil.NewMemStore()
	testutil.QuadrantTree(t, store, 1, 1)
	store.Fail(tile.Root.Children()[1], errors.New("boom"))

	name := t.Name()
	ds := New(store, WithName(name))
	defer ds.Close()
	if err := ds.Ready(context.Background()); err != nil {
		t.Fatalf("Ready failed: %v", err)
	}

	// Lower half only: two quadrants overlap, two merely touch.
	ds.DownloadMostNeededTiles(testutil.Rect(0, 10, 0, 5), math.MaxInt64, 4)
	ds.Wait()

	for _, tc := range []struct {
		Name string
		Got  float64
		Want float64
	}{
		{"admissions", promtestutil.ToFloat64(tileAdmissions.WithLabelValues(name)), 2},
		{"complete", promtestutil.ToFloat64(tileDownloads.WithLabelValues(name, resultComplete)), 1},
		{"failed", promtestutil.ToFloat64(tileDownloads.WithLabelValues(name, resultFailed)), 1},
		{"no_overlap", promtestutil.ToFloat64(tileCandidatesSkipped.WithLabelValues(name, reasonNoOverlap)), 2},
		{"in_flight", promtestutil.ToFloat64(tilesInFlight.WithLabelValues(name)), 0},
	} {
		if tc.Got != tc.Want {
			t.Errorf("%v = %v, want = %v", tc.Name, tc.Got, tc.Want)
		}
	}
}
