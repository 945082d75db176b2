package transport

import (
	"encoding/gob"
	"fmt"
	"net"
	"time"

	"DistTally/internal/logger"
	"DistTally/internal/tag"
)

// frameKind discriminates the wire messages of one run.
type frameKind int

const (
	frameHello      frameKind = iota // worker -> coordinator, carries Rank
	frameAssignment                  // coordinator -> worker, carries Files
	frameBarrier                     // worker -> coordinator: arrived at barrier
	frameRelease                     // coordinator -> worker: barrier released
	frameCounts                      // worker -> coordinator, carries Counts
)

func (k frameKind) String() string {
	switch k {
	case frameHello:
		return "hello"
	case frameAssignment:
		return "assignment"
	case frameBarrier:
		return "barrier"
	case frameRelease:
		return "release"
	case frameCounts:
		return "counts"
	}
	return "unknown"
}

// frame is the single gob-encoded wire message. Exactly one payload field
// is meaningful for any given Kind.
type frame struct {
	Kind   frameKind
	Rank   int
	Files  []string
	Counts tag.Counts
}

// peer is one side of an established connection.
type peer struct {
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder
}

func newPeer(conn net.Conn) *peer {
	return &peer{conn: conn, enc: gob.NewEncoder(conn), dec: gob.NewDecoder(conn)}
}

func (p *peer) send(f frame) error {
	return p.enc.Encode(f)
}

func (p *peer) recv(want frameKind) (frame, error) {
	var f frame
	if err := p.dec.Decode(&f); err != nil {
		return frame{}, err
	}
	if f.Kind != want {
		return frame{}, fmt.Errorf("expected %s frame, got %s", want, f.Kind)
	}
	return f, nil
}

// TCPCoordinator is the coordinator's side of the network transport. Every
// connection carries only the fixed per-run message sequence (hello,
// barrier arrival, counts inbound; assignment, release outbound), so plain
// blocking reads per peer are sufficient — no multiplexing.
type TCPCoordinator struct {
	size  int
	ln    net.Listener
	peers []*peer // indexed by rank; index 0 unused
	log   *logger.Logger
}

// ListenTCP binds addr and accepts exactly size-1 workers, each of which
// identifies itself with a hello frame carrying its rank. It blocks until
// the full topology is connected.
func ListenTCP(addr string, size int, lg *logger.Logger) (*TCPCoordinator, error) {
	if size < 2 {
		return nil, fmt.Errorf("network transport needs at least 2 participants, got %d", size)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	c := &TCPCoordinator{
		size:  size,
		ln:    ln,
		peers: make([]*peer, size),
		log:   lg,
	}

	for connected := 0; connected < size-1; connected++ {
		conn, err := ln.Accept()
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("accepting worker connection: %w", err)
		}
		p := newPeer(conn)
		hello, err := p.recv(frameHello)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("worker handshake: %w", err)
		}
		if hello.Rank < 1 || hello.Rank >= size {
			c.Close()
			return nil, fmt.Errorf("worker announced rank %d, want 1..%d", hello.Rank, size-1)
		}
		if c.peers[hello.Rank] != nil {
			c.Close()
			return nil, fmt.Errorf("duplicate connection for rank %d", hello.Rank)
		}
		c.peers[hello.Rank] = p
		lg.Info("Worker connected: rank=%d remote=%s", hello.Rank, conn.RemoteAddr())
	}

	return c, nil
}

// Addr returns the address the coordinator is listening on.
func (c *TCPCoordinator) Addr() string { return c.ln.Addr().String() }

func (c *TCPCoordinator) Rank() int { return 0 }
func (c *TCPCoordinator) Size() int { return c.size }

func (c *TCPCoordinator) SendAssignment(dest int, files []string) error {
	if dest < 1 || dest >= c.size {
		return fmt.Errorf("assignment destination rank %d out of range", dest)
	}
	return c.peers[dest].send(frame{Kind: frameAssignment, Files: files})
}

func (c *TCPCoordinator) RecvAssignment() ([]string, error) {
	return nil, fmt.Errorf("coordinator keeps its own slice and receives no assignment")
}

func (c *TCPCoordinator) SendCounts(dest int, counts tag.Counts) error {
	return fmt.Errorf("coordinator folds counts locally and sends none")
}

func (c *TCPCoordinator) RecvCounts(src int) (tag.Counts, error) {
	if src < 1 || src >= c.size {
		return tag.Counts{}, fmt.Errorf("partial result source rank %d out of range", src)
	}
	f, err := c.peers[src].recv(frameCounts)
	if err != nil {
		return tag.Counts{}, fmt.Errorf("partial result from rank %d: %w", src, err)
	}
	return f.Counts, nil
}

// Barrier collects one arrival frame from every worker, then broadcasts
// the release. The coordinator itself counts as arrived by calling this.
func (c *TCPCoordinator) Barrier() error {
	for r := 1; r < c.size; r++ {
		if _, err := c.peers[r].recv(frameBarrier); err != nil {
			return fmt.Errorf("barrier arrival from rank %d: %w", r, err)
		}
	}
	for r := 1; r < c.size; r++ {
		if err := c.peers[r].send(frame{Kind: frameRelease}); err != nil {
			return fmt.Errorf("barrier release to rank %d: %w", r, err)
		}
	}
	return nil
}

func (c *TCPCoordinator) Close() error {
	for _, p := range c.peers {
		if p != nil {
			p.conn.Close()
		}
	}
	return c.ln.Close()
}

// TCPWorker is a worker's side of the network transport.
type TCPWorker struct {
	rank int
	size int
	peer *peer
	log  *logger.Logger
}

// dialRetryWindow bounds how long a starting worker keeps redialing a
// coordinator that has not bound its port yet. This only covers startup
// ordering; once connected there are no timeouts.
const dialRetryWindow = 30 * time.Second

// DialTCP connects to the coordinator at addr and announces rank. The dial
// is retried within dialRetryWindow so workers may start before the
// coordinator is listening.
func DialTCP(addr string, rank, size int, lg *logger.Logger) (*TCPWorker, error) {
	if rank < 1 || rank >= size {
		return nil, fmt.Errorf("worker rank %d out of range for %d participants", rank, size)
	}

	var conn net.Conn
	var err error
	deadline := time.Now().Add(dialRetryWindow)
	for {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to reach coordinator at %s: %w", addr, err)
		}
		lg.Debug("Coordinator at %s not up yet, retrying: %v", addr, err)
		time.Sleep(200 * time.Millisecond)
	}

	w := &TCPWorker{rank: rank, size: size, peer: newPeer(conn), log: lg}
	if err := w.peer.send(frame{Kind: frameHello, Rank: rank}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("worker handshake: %w", err)
	}

	lg.Info("Connected to coordinator: rank=%d addr=%s", rank, addr)
	return w, nil
}

func (w *TCPWorker) Rank() int { return w.rank }
func (w *TCPWorker) Size() int { return w.size }

func (w *TCPWorker) SendAssignment(dest int, files []string) error {
	return fmt.Errorf("workers do not dispatch assignments")
}

func (w *TCPWorker) RecvAssignment() ([]string, error) {
	f, err := w.peer.recv(frameAssignment)
	if err != nil {
		return nil, fmt.Errorf("awaiting assignment: %w", err)
	}
	return f.Files, nil
}

func (w *TCPWorker) SendCounts(dest int, counts tag.Counts) error {
	if dest != 0 {
		return fmt.Errorf("partial results go to the coordinator, not rank %d", dest)
	}
	return w.peer.send(frame{Kind: frameCounts, Counts: counts})
}

func (w *TCPWorker) RecvCounts(src int) (tag.Counts, error) {
	return tag.Counts{}, fmt.Errorf("workers do not collect partial results")
}

// Barrier announces arrival and blocks until the coordinator releases it.
func (w *TCPWorker) Barrier() error {
	if err := w.peer.send(frame{Kind: frameBarrier}); err != nil {
		return fmt.Errorf("barrier arrival: %w", err)
	}
	if _, err := w.peer.recv(frameRelease); err != nil {
		return fmt.Errorf("barrier release: %w", err)
	}
	return nil
}

func (w *TCPWorker) Close() error {
	return w.peer.conn.Close()
}
