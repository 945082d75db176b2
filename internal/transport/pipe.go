package transport

import (
	"fmt"
	"sync"

	"DistTally/internal/tag"
)

// Hub wires n in-process participants together over channels. It exists
// for single-binary runs and for deterministic tests of the coordinator
// protocol without spawning processes.
type Hub struct {
	size    int
	assign  []chan []string   // indexed by destination rank
	counts  []chan tag.Counts // indexed by source rank
	barrier *barrier
}

// NewHub creates a hub for size participants.
func NewHub(size int) *Hub {
	h := &Hub{
		size:    size,
		assign:  make([]chan []string, size),
		counts:  make([]chan tag.Counts, size),
		barrier: newBarrier(size),
	}
	for i := 0; i < size; i++ {
		// Buffered so a worker that finishes early parks its result
		// until the coordinator's rank-ordered pull reaches it.
		h.assign[i] = make(chan []string, 1)
		h.counts[i] = make(chan tag.Counts, 1)
	}
	return h
}

// Endpoint returns the transport seen by one rank.
func (h *Hub) Endpoint(rank int) (*Pipe, error) {
	if rank < 0 || rank >= h.size {
		return nil, fmt.Errorf("rank %d out of range for %d participants", rank, h.size)
	}
	return &Pipe{hub: h, rank: rank}, nil
}

// Pipe is the channel-backed Transport for one in-process participant.
type Pipe struct {
	hub  *Hub
	rank int
}

func (p *Pipe) Rank() int { return p.rank }
func (p *Pipe) Size() int { return p.hub.size }

func (p *Pipe) SendAssignment(dest int, files []string) error {
	if dest <= 0 || dest >= p.hub.size {
		return fmt.Errorf("assignment destination rank %d out of range", dest)
	}
	p.hub.assign[dest] <- files
	return nil
}

func (p *Pipe) RecvAssignment() ([]string, error) {
	if p.rank == 0 {
		return nil, fmt.Errorf("coordinator keeps its own slice and receives no assignment")
	}
	return <-p.hub.assign[p.rank], nil
}

func (p *Pipe) SendCounts(dest int, counts tag.Counts) error {
	if dest != 0 {
		return fmt.Errorf("partial results go to the coordinator, not rank %d", dest)
	}
	p.hub.counts[p.rank] <- counts
	return nil
}

func (p *Pipe) RecvCounts(src int) (tag.Counts, error) {
	if src <= 0 || src >= p.hub.size {
		return tag.Counts{}, fmt.Errorf("partial result source rank %d out of range", src)
	}
	return <-p.hub.counts[src], nil
}

func (p *Pipe) Barrier() error {
	p.hub.barrier.wait()
	return nil
}

func (p *Pipe) Close() error { return nil }

// barrier releases every waiter only once all n have arrived.
type barrier struct {
	mu      sync.Mutex
	n       int
	arrived int
	release chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, release: make(chan struct{})}
}

func (b *barrier) wait() {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.release)
	}
	b.mu.Unlock()
	<-b.release
}
