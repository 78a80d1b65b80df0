package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickReiis/rap-battle-nostr/internal/aggregates"
	"github.com/patrickReiis/rap-battle-nostr/internal/config"
	internalnostr "github.com/patrickReiis/rap-battle-nostr/internal/nostr"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
	"github.com/patrickReiis/rap-battle-nostr/internal/publisher"
	"github.com/patrickReiis/rap-battle-nostr/internal/scheduler"
	"github.com/patrickReiis/rap-battle-nostr/internal/server"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		handleInit()
		return
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to configuration file")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rapbattle %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if *configPath == "" {
		fmt.Println("rapbattle - Nostr rap battle aggregator")
		fmt.Println()
		fmt.Println("No configuration file specified. Use --config <path> to specify config.")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  rapbattle init              Generate example configuration")
		fmt.Println("  rapbattle --version         Show version information")
		fmt.Println("  rapbattle --config <path>   Start with configuration file")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleInit() {
	data, err := config.GetExampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading example config: %v\n", err)
		os.Exit(1)
	}

	path := "rapbattle.yaml"
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "%s already exists, not overwriting\n", path)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := ops.NewLogger(&cfg.Logging)
	ops.SetDefault(logger)
	logger.LogStartup(version, commit)

	client := internalnostr.New(ctx, &cfg.Relays, logger)
	defer client.Close()

	service := aggregates.NewService(client, &cfg.Relays.Policy, logger)
	sched := scheduler.New(ctx, service, scheduler.IntervalsFromConfig(&cfg.Polling), logger)
	sched.Start()
	defer sched.Stop()

	var pub *publisher.Publisher
	if cfg.Identity.Nsec != "" {
		var err error
		pub, err = publisher.New(client, cfg.Identity.Nsec, sched.Invalidate, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		logger.Info("publishing enabled", "pubkey", pub.Pubkey())
	} else {
		logger.Info("no RAPBATTLE_NSEC set, running read-only")
	}

	var srv *server.Server
	serverErr := make(chan error, 1)
	if cfg.Server.Enabled {
		srv = server.New(&cfg.Server, server.NewHandler(sched, pub, logger), logger)
		go func() {
			serverErr <- srv.Start()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.LogShutdown(sig.String())
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed", "error", err)
		}
	}

	return nil
}
