// Package config loads the cluster file describing a multi-process run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Cluster describes the static topology of one multi-process run: one
// coordinator plus Participants-1 workers. It never changes mid-run.
type Cluster struct {
	// Participants is the total process count, coordinator included.
	Participants int `yaml:"participants"`
	// Coordinator is the host:port workers dial for the run protocol.
	Coordinator string `yaml:"coordinator"`
	// Discovery configures the optional gossip membership layer.
	Discovery Discovery `yaml:"discovery"`
}

// Discovery configures memberlist-based participant discovery. When
// enabled, the coordinator waits until every participant has joined before
// dispatching any assignment.
type Discovery struct {
	Enabled  bool   `yaml:"enabled"`
	BindAddr string `yaml:"bind_addr"`
	// BindPort is the gossip port of the coordinator; participant rank r
	// binds BindPort+r so a whole run can share one host.
	BindPort  int      `yaml:"bind_port"`
	JoinAddrs []string `yaml:"join_addrs"`
}

// Load reads and validates a cluster file.
func Load(path string) (*Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster file %s: %w", path, err)
	}

	var c Cluster
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse cluster file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("cluster file %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks the topology before any process starts dispatching.
func (c *Cluster) Validate() error {
	if c.Participants < 1 {
		return fmt.Errorf("participants must be at least 1, got %d", c.Participants)
	}
	if c.Participants > 1 && c.Coordinator == "" {
		return fmt.Errorf("coordinator address is required for %d participants", c.Participants)
	}
	if c.Discovery.Enabled && c.Discovery.BindPort <= 0 {
		return fmt.Errorf("discovery requires a positive bind_port, got %d", c.Discovery.BindPort)
	}
	return nil
}
