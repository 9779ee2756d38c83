// Package testutil provides in-memory tile sources for tests.
package testutil

import (
	"maps"
	"sync"

	"github.com/eak1mov/go-quadstream/tile"
)

// MemStore is an in-memory tile.Reader, tile.Writer and tile.Visitor.
// Reads of tiles registered with Fail return the registered error.
type MemStore struct {
	mu    sync.Mutex
	tiles map[tile.ID][]byte
	fails map[tile.ID]error
	reads map[tile.ID]int
}

func NewMemStore() *MemStore {
	return &MemStore{
		tiles: make(map[tile.ID][]byte),
		fails: make(map[tile.ID]error),
		reads: make(map[tile.ID]int),
	}
}

func (s *MemStore) WriteTile(tileID tile.ID, tileData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[tileID] = tileData
	return nil
}

func (s *MemStore) Finalize() error {
	return nil
}

func (s *MemStore) ReadTile(tileID tile.ID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[tileID]++
	if err, ok := s.fails[tileID]; ok {
		return nil, err
	}
	if data, ok := s.tiles[tileID]; ok {
		return data, nil
	}
	return make([]byte, 0), nil
}

func (s *MemStore) VisitTiles(visitor func(tile.ID, []byte) error) error {
	s.mu.Lock()
	tiles := maps.Clone(s.tiles)
	s.mu.Unlock()
	for tileID, data := range tiles {
		if err := visitor(tileID, data); err != nil {
			return err
		}
	}
	return nil
}

// Fail makes reads of tileID return err. A nil err clears the failure.
func (s *MemStore) Fail(tileID tile.ID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, tileID)
		return
	}
	s.fails[tileID] = err
}

// Reads returns how many times tileID was read.
func (s *MemStore) Reads(tileID tile.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[tileID]
}

func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tiles)
}
