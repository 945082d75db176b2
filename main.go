package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"DistTally/internal/config"
	"DistTally/internal/discovery"
	"DistTally/internal/engine"
	"DistTally/internal/filelist"
	"DistTally/internal/loggen"
	"DistTally/internal/logger"
	"DistTally/internal/report"
	"DistTally/internal/transport"
)

func main() {
	app := &cli.App{
		Name:  "disttally",
		Usage: "count log severity tags across many files with distributed workers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "INFO",
				Usage: "DEBUG, INFO, WARN or ERROR",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			coordinatorCommand(),
			workerCommand(),
			genCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "count",
			Usage: "number of files to expand a '" + filelist.Placeholder + "' pattern over",
		},
		&cli.BoolFlag{
			Name:  "no-seq",
			Usage: "skip the sequential baseline pass (no speedup/efficiency in the report)",
		},
	}
}

// runCommand hosts a whole run in one process: the coordinator plus n-1
// workers as goroutines over the in-process transport.
func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run coordinator and workers inside one process",
		ArgsUsage: "<manifest.txt | pattern-with-{n} | file>",
		Flags: append(inputFlags(),
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"n"},
				Value:   4,
				Usage:   "total participant count, coordinator included",
			},
		),
		Action: func(c *cli.Context) error {
			lg := logger.New(c.String("log-level"))

			files, err := filelist.Resolve(c.Args().First(), c.Int("count"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			n := c.Int("workers")
			if n < 1 {
				return cli.Exit(fmt.Sprintf("workers must be at least 1, got %d", n), 2)
			}

			hub := transport.NewHub(n)

			var wg sync.WaitGroup
			workerErrs := make([]error, n)
			for r := 1; r < n; r++ {
				ep, err := hub.Endpoint(r)
				if err != nil {
					return cli.Exit(err.Error(), 2)
				}
				wg.Add(1)
				go func(rank int, tr transport.Transport) {
					defer wg.Done()
					_, workerErrs[rank] = engine.Run(engine.Worker, engine.Options{}, tr, lg)
				}(r, ep)
			}

			ep, err := hub.Endpoint(0)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			rep, err := engine.Run(engine.Coordinator, engine.Options{
				Files:    files,
				Baseline: !c.Bool("no-seq"),
			}, ep, lg)
			wg.Wait()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			for r, werr := range workerErrs {
				if werr != nil {
					return cli.Exit(fmt.Sprintf("worker %d: %v", r, werr), 1)
				}
			}

			report.Render(os.Stdout, rep)
			return nil
		},
	}
}

func clusterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "cluster YAML file (overrides the flags below)",
		},
		&cli.StringFlag{
			Name:  "coordinator",
			Value: "127.0.0.1:7100",
			Usage: "host:port the coordinator listens on and workers dial",
		},
		&cli.IntFlag{
			Name:    "participants",
			Aliases: []string{"n"},
			Value:   4,
			Usage:   "total participant count, coordinator included",
		},
		&cli.BoolFlag{
			Name:  "discovery",
			Usage: "gate the run on gossip membership of all participants",
		},
		&cli.StringFlag{
			Name:  "discovery-bind",
			Value: "127.0.0.1",
			Usage: "gossip bind address",
		},
		&cli.IntFlag{
			Name:  "discovery-port",
			Value: 7946,
			Usage: "gossip port of rank 0; rank r binds port+r",
		},
		&cli.StringSliceFlag{
			Name:  "join",
			Usage: "gossip addresses to join through",
		},
		&cli.DurationFlag{
			Name:  "discovery-timeout",
			Value: time.Minute,
			Usage: "how long the coordinator waits for all participants to join",
		},
	}
}

func loadCluster(c *cli.Context) (*config.Cluster, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cluster := &config.Cluster{
		Participants: c.Int("participants"),
		Coordinator:  c.String("coordinator"),
		Discovery: config.Discovery{
			Enabled:   c.Bool("discovery"),
			BindAddr:  c.String("discovery-bind"),
			BindPort:  c.Int("discovery-port"),
			JoinAddrs: c.StringSlice("join"),
		},
	}
	if err := cluster.Validate(); err != nil {
		return nil, err
	}
	return cluster, nil
}

func joinGossip(cluster *config.Cluster, rank int, lg *logger.Logger) (*discovery.Participants, error) {
	return discovery.Join(discovery.Config{
		Rank:      rank,
		BindAddr:  cluster.Discovery.BindAddr,
		BindPort:  cluster.Discovery.BindPort + rank,
		JoinAddrs: cluster.Discovery.JoinAddrs,
	}, lg)
}

// coordinatorCommand runs rank 0 of a multi-process cluster.
func coordinatorCommand() *cli.Command {
	return &cli.Command{
		Name:      "coordinator",
		Usage:     "run the coordinator of a multi-process cluster",
		ArgsUsage: "<manifest.txt | pattern-with-{n} | file>",
		Flags:     append(inputFlags(), clusterFlags()...),
		Action: func(c *cli.Context) error {
			lg := logger.New(c.String("log-level"))

			cluster, err := loadCluster(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			files, err := filelist.Resolve(c.Args().First(), c.Int("count"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			if cluster.Discovery.Enabled {
				parts, err := joinGossip(cluster, 0, lg)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer parts.Leave(5 * time.Second)
				lg.Info("Waiting for %d participant(s) to join...", cluster.Participants)
				if err := parts.WaitForAll(cluster.Participants, c.Duration("discovery-timeout")); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}

			var tr transport.Transport
			if cluster.Participants == 1 {
				// A lone coordinator analyses everything itself; there is
				// nothing to dial and nobody to rendezvous with.
				hub := transport.NewHub(1)
				tr, err = hub.Endpoint(0)
			} else {
				tr, err = transport.ListenTCP(cluster.Coordinator, cluster.Participants, lg)
			}
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer tr.Close()

			rep, err := engine.Run(engine.Coordinator, engine.Options{
				Files:    files,
				Baseline: !c.Bool("no-seq"),
			}, tr, lg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			report.Render(os.Stdout, rep)
			return nil
		},
	}
}

// workerCommand runs one worker rank of a multi-process cluster.
func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "run one worker of a multi-process cluster",
		Flags: append(clusterFlags(),
			&cli.IntFlag{
				Name:     "rank",
				Required: true,
				Usage:    "this worker's rank, 1..participants-1",
			},
		),
		Action: func(c *cli.Context) error {
			lg := logger.New(c.String("log-level"))

			cluster, err := loadCluster(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			rank := c.Int("rank")

			if cluster.Discovery.Enabled {
				parts, err := joinGossip(cluster, rank, lg)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer parts.Leave(5 * time.Second)
			}

			tr, err := transport.DialTCP(cluster.Coordinator, rank, cluster.Participants, lg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer tr.Close()

			if _, err := engine.Run(engine.Worker, engine.Options{}, tr, lg); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// genCommand writes synthetic logs to benchmark against.
func genCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen",
		Usage: "generate synthetic log files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Value: "logs",
				Usage: "directory to write logs into",
			},
			&cli.IntFlag{
				Name:  "files",
				Value: 10,
				Usage: "number of log files",
			},
			&cli.IntFlag{
				Name:  "lines",
				Value: 5000,
				Usage: "lines per file",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "random seed",
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "also write a manifest of the generated paths",
			},
		},
		Action: func(c *cli.Context) error {
			lg := logger.New(c.String("log-level"))

			files, err := loggen.WriteFiles(c.String("dir"), c.Int("files"), c.Int("lines"), c.Int64("seed"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			lg.Info("Generated %d log file(s) of %d line(s) under %s", len(files), c.Int("lines"), c.String("dir"))

			if manifest := c.String("manifest"); manifest != "" {
				if err := loggen.WriteManifest(manifest, files); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				lg.Info("Wrote manifest: %s", manifest)
			}
			return nil
		},
	}
}
