// Package worker provides a fixed-size pool of decode workers that parse
// tile payloads off the caller's goroutine.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/eak1mov/go-quadstream/payload"
)

var ErrPoolClosed = errors.New("quadstream: worker pool closed")

const DefaultSize = 4

type request struct {
	data  []byte
	reply chan<- result
}

type result struct {
	tile *payload.Tile
	err  error
}

// Worker is a handle to one decode goroutine. Handles are shared freely
// between callers; requests are served one at a time in arrival order.
type Worker struct {
	id       int
	requests chan request
	done     <-chan struct{}
}

func (w *Worker) ID() int {
	return w.id
}

// Decode sends data to the worker and waits for the decoded tile.
func (w *Worker) Decode(ctx context.Context, data []byte) (*payload.Tile, error) {
	reply := make(chan result, 1)
	select {
	case w.requests <- request{data: data, reply: reply}:
	case <-w.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.tile, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Worker) run(decoder *payload.Decoder, decoderErr error) {
	if decoder != nil {
		defer decoder.Close()
	}
	for {
		select {
		case req := <-w.requests:
			if decoderErr != nil {
				req.reply <- result{err: decoderErr}
				continue
			}
			t, err := decoder.Decode(req.data)
			req.reply <- result{tile: t, err: err}
		case <-w.done:
			return
		}
	}
}

// Pool is a fixed set of workers created lazily on first Acquire.
// It does not track which workers are busy.
type Pool struct {
	size   int
	logger *slog.Logger

	mu      sync.Mutex
	workers []*Worker
	done    chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

type poolConfig struct {
	Size   int
	Logger *slog.Logger
}

type Option func(*poolConfig)

// WithSize sets the number of workers (default DefaultSize).
func WithSize(size int) Option {
	return func(c *poolConfig) { c.Size = size }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *poolConfig) { c.Logger = logger }
}

func NewPool(opts ...Option) *Pool {
	config := poolConfig{
		Size:   DefaultSize,
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Size <= 0 {
		config.Size = DefaultSize
	}
	return &Pool{
		size:   config.Size,
		logger: config.Logger,
		done:   make(chan struct{}),
	}
}

func (p *Pool) Size() int {
	return p.size
}

// Started reports whether the workers have been created.
func (p *Pool) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers) > 0
}

// Acquire returns a worker handle. The first call starts the workers and
// returns the first one; every later call moves the last worker to the
// front and returns it.
func (p *Pool) Acquire() *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.workers); n > 0 {
		last := p.workers[n-1]
		copy(p.workers[1:], p.workers[:n-1])
		p.workers[0] = last
		return last
	}

	if p.closed {
		return &Worker{id: -1, done: p.done}
	}

	p.logger.Debug("quadstream: starting decode workers", "size", p.size)
	for i := range p.size {
		w := &Worker{id: i, requests: make(chan request), done: p.done}
		decoder, err := payload.NewDecoder()
		if err != nil {
			p.logger.Error("quadstream: failed to create decoder", "worker", i, "error", err)
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(decoder, err)
		}()
		p.workers = append(p.workers, w)
	}
	return p.workers[0]
}

// Close stops all workers and waits for them to exit.
// Decode calls on any handle fail with ErrPoolClosed afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("quadstream: decode workers stopped")
	return nil
}
