package testutil

import (
	"sync"

	"github.com/eak1mov/go-quadstream/tile"
)

// GatedReader holds reads of selected tiles until they are released.
type GatedReader struct {
	source tile.Reader

	mu    sync.Mutex
	gates map[tile.ID]chan struct{}
}

func NewGatedReader(source tile.Reader) *GatedReader {
	return &GatedReader{source: source, gates: make(map[tile.ID]chan struct{})}
}

// Hold makes subsequent reads of tileID block until Release(tileID) is called.
func (g *GatedReader) Hold(tileID tile.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.gates[tileID]; !ok {
		g.gates[tileID] = make(chan struct{})
	}
}

// Release releases reads of tileID.
func (g *GatedReader) Release(tileID tile.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gate, ok := g.gates[tileID]; ok {
		close(gate)
		delete(g.gates, tileID)
	}
}

// ReleaseAll releases every gated tile.
func (g *GatedReader) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for tileID, gate := range g.gates {
		close(gate)
		delete(g.gates, tileID)
	}
}

func (g *GatedReader) ReadTile(tileID tile.ID) ([]byte, error) {
	g.mu.Lock()
	gate := g.gates[tileID]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return g.source.ReadTile(tileID)
}
