// Package discovery tracks run participants over gossip so the
// coordinator can gate dispatch on the full topology being present.
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/memberlist"

	"DistTally/internal/logger"
)

// eventDelegate implements memberlist.EventDelegate for membership changes.
type eventDelegate struct {
	participants *Participants
}

func (ed *eventDelegate) NotifyJoin(node *memberlist.Node) {
	ed.participants.handleJoin(node)
}

func (ed *eventDelegate) NotifyLeave(node *memberlist.Node) {
	ed.participants.handleLeave(node)
}

func (ed *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	ed.participants.handleJoin(node)
}

// Participants is the gossip view of a run: every process joins under its
// rank name and everyone can see who is present. Membership only gates the
// start of a run; the run protocol itself travels over the transport, not
// over gossip.
type Participants struct {
	memberlist *memberlist.Memberlist
	logger     *logger.Logger

	mu      sync.RWMutex
	present map[int]string // rank -> address:port
	changed chan struct{}  // closed and replaced on every membership change

	localRank int
}

// Config for joining a run's gossip cluster.
type Config struct {
	Rank      int      // This participant's rank; 0 is the coordinator.
	BindAddr  string   // Address to bind gossip to.
	BindPort  int      // Port to bind gossip to.
	JoinAddrs []string // Existing members to join through ("host:port").
}

func rankName(rank int) string {
	return fmt.Sprintf("rank-%d", rank)
}

func parseRank(name string) (int, bool) {
	var r int
	if _, err := fmt.Sscanf(name, "rank-%d", &r); err != nil || r < 0 {
		return 0, false
	}
	return r, true
}

// Join starts gossiping under cfg.Rank's name and joins through
// cfg.JoinAddrs when given.
func Join(cfg Config, lg *logger.Logger) (*Participants, error) {
	lg.Info("Joining run gossip: rank=%d addr=%s:%d", cfg.Rank, cfg.BindAddr, cfg.BindPort)

	p := &Participants{
		logger:    lg,
		present:   make(map[int]string),
		changed:   make(chan struct{}),
		localRank: cfg.Rank,
	}

	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = rankName(cfg.Rank)
	mlConfig.BindAddr = cfg.BindAddr
	mlConfig.BindPort = cfg.BindPort
	mlConfig.ProbeInterval = 1 * time.Second
	mlConfig.ProbeTimeout = 500 * time.Millisecond
	mlConfig.GossipInterval = 200 * time.Millisecond
	mlConfig.Events = &eventDelegate{participants: p}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	p.memberlist = ml
	p.handleJoin(ml.LocalNode())

	if len(cfg.JoinAddrs) > 0 {
		if _, err := ml.Join(cfg.JoinAddrs); err != nil {
			ml.Shutdown()
			return nil, fmt.Errorf("failed to join gossip cluster: %w", err)
		}
	}

	return p, nil
}

// Present returns the ranks currently visible, mapped to their gossip
// addresses.
func (p *Participants) Present() map[int]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[int]string, len(p.present))
	for r, addr := range p.present {
		out[r] = addr
	}
	return out
}

// NumPresent returns how many participants are currently visible.
func (p *Participants) NumPresent() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.present)
}

// WaitForAll blocks until ranks 0..total-1 are all visible or the timeout
// expires. The coordinator calls this before dispatching anything.
func (p *Participants) WaitForAll(total int, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		p.mu.RLock()
		missing := -1
		for r := 0; r < total; r++ {
			if _, ok := p.present[r]; !ok {
				missing = r
				break
			}
		}
		changed := p.changed
		p.mu.RUnlock()

		if missing < 0 {
			return nil
		}

		select {
		case <-changed:
		case <-deadline.C:
			return fmt.Errorf("rank %d not present after %s (%d of %d joined)", missing, timeout, p.NumPresent(), total)
		}
	}
}

func (p *Participants) handleJoin(node *memberlist.Node) {
	rank, ok := parseRank(node.Name)
	if !ok {
		p.logger.Warn("Ignoring gossip member with foreign name: %s", node.Name)
		return
	}

	addr := net.JoinHostPort(node.Addr.String(), strconv.Itoa(int(node.Port)))

	p.mu.Lock()
	p.present[rank] = addr
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()

	p.logger.Info("Participant joined: rank=%d address=%s", rank, addr)
}

func (p *Participants) handleLeave(node *memberlist.Node) {
	rank, ok := parseRank(node.Name)
	if !ok {
		return
	}

	p.mu.Lock()
	delete(p.present, rank)
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()

	p.logger.Warn("Participant left: rank=%d", rank)
}

// Leave gracefully leaves the gossip cluster.
func (p *Participants) Leave(timeout time.Duration) error {
	return p.memberlist.Leave(timeout)
}

// Shutdown stops gossiping without a graceful leave.
func (p *Participants) Shutdown() error {
	return p.memberlist.Shutdown()
}
