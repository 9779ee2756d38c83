package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/eak1mov/go-quadstream/geom"
	"github.com/eak1mov/go-quadstream/payload"
	"github.com/eak1mov/go-quadstream/worker"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAcquireRotation(t *testing.T) {
	pool := worker.NewPool()
	defer pool.Close()

	if pool.Started() {
		t.Fatalf("pool started before first Acquire")
	}

	var got []int
	for range 9 {
		got = append(got, pool.Acquire().ID())
	}
	if !pool.Started() {
		t.Errorf("pool not started after Acquire")
	}

	want := []int{0, 3, 2, 1, 0, 3, 2, 1, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Acquire order mismatch (-want+got):\n%v", diff)
	}
}

func TestDecodeConcurrently(t *testing.T) {
	pool := worker.NewPool(worker.WithSize(2))
	defer pool.Close()

	want := &payload.Tile{
		Extent: geom.Rect{X: [2]float64{0, 1}, Y: [2]float64{0, 1}},
		Rows:   []payload.Row{{Ix: 1, X: 0.5, Y: 0.5}},
	}
	data, err := payload.Encode(want, true)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	tiles := make([]*payload.Tile, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tiles[i], errs[i] = pool.Acquire().Decode(context.Background(), data)
		}()
	}
	wg.Wait()

	for i := range 16 {
		if errs[i] != nil {
			t.Errorf("Decode #%v failed: %v", i, errs[i])
			continue
		}
		if diff := cmp.Diff(want, tiles[i]); diff != "" {
			t.Errorf("Decode #%v mismatch (-want+got):\n%v", i, diff)
		}
	}
}

func TestDecodeError(t *testing.T) {
	pool := worker.NewPool()
	defer pool.Close()

	if _, err := pool.Acquire().Decode(context.Background(), []byte("nope")); !errors.Is(err, payload.ErrInvalidPayload) {
		t.Errorf("Decode error = %v, want ErrInvalidPayload", err)
	}
}

func TestClose(t *testing.T) {
	pool := worker.NewPool()
	w := pool.Acquire()
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	if _, err := w.Decode(context.Background(), []byte("{}")); !errors.Is(err, worker.ErrPoolClosed) {
		t.Errorf("Decode after Close error = %v, want ErrPoolClosed", err)
	}
	if _, err := pool.Acquire().Decode(context.Background(), []byte("{}")); !errors.Is(err, worker.ErrPoolClosed) {
		t.Errorf("Acquire().Decode after Close error = %v, want ErrPoolClosed", err)
	}
}

func TestCloseBeforeAcquire(t *testing.T) {
	pool := worker.NewPool()
	require.NoError(t, pool.Close())

	if _, err := pool.Acquire().Decode(context.Background(), []byte("{}")); !errors.Is(err, worker.ErrPoolClosed) {
		t.Errorf("Decode error = %v, want ErrPoolClosed", err)
	}
	if pool.Started() {
		t.Errorf("closed pool started workers")
	}
}

func TestDecodeContextCancelled(t *testing.T) {
	pool := worker.NewPool(worker.WithSize(1))
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Either the request races through or the cancelled context wins; it must not hang.
	_, err := pool.Acquire().Decode(ctx, []byte("{}"))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, payload.ErrInvalidPayload) {
		t.Errorf("Decode error = %v", err)
	}
}
