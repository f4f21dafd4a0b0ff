package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/poller"
	"github.com/skylinknet/pppmon/internal/routeros"
	"github.com/skylinknet/pppmon/internal/store"
	"github.com/skylinknet/pppmon/pkg/factory"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// pppmon-poll runs a single reconciliation run and prints the report.
// It is the batch-mode entry point for external schedulers (cron,
// systemd timers); the run itself is identical to POST /api/v1/poll.
func main() {
	// Command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		routerID    = flag.String("router", "", "Poll only this router id")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
	)

	flag.Parse()

	// Show help
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// Show version
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Load configuration
	cfg, err := factory.InitConfigFactory(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.Config{
		Level:           cfg.Logger.Level,
		ReportCaller:    cfg.Logger.ReportCaller,
		File:            cfg.Logger.File,
		RotationCount:   cfg.Logger.RotationCount,
		RotationMaxAge:  cfg.Logger.RotationMaxAge,
		RotationMaxSize: cfg.Logger.RotationMaxSize,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Parse optional router filter
	var filter *uuid.UUID
	if *routerID != "" {
		id, err := uuid.Parse(*routerID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid router id: %v\n", err)
			os.Exit(1)
		}
		filter = &id
	}

	// Connect storage
	st, err := store.Connect(cfg.Database)
	if err != nil {
		logger.InitLog.Fatalf("Failed to connect storage: %v", err)
	}
	defer st.Close()

	// Run the engine once
	client := routeros.NewClient(cfg.Poller)
	engine := poller.New(st, client, cfg.Poller)
	report := engine.Run(context.Background(), filter)

	// Print the report to stdout
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		logger.InitLog.Errorf("Failed to encode report: %v", err)
	}

	if !report.Success {
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Skylink PPPoE Monitor Poll Runner\n")
	fmt.Printf("Version:     %s\n", version)
	fmt.Printf("Build Time:  %s\n", buildTime)
	fmt.Printf("Git Commit:  %s\n", gitCommit)
}

func printHelp() {
	fmt.Println("Skylink PPPoE Monitor Poll Runner")
	fmt.Println()
	fmt.Println("Runs one reconciliation run against the registered routers and prints")
	fmt.Println("the run report as JSON. Exit status is non-zero only when run-level")
	fmt.Println("setup fails; individual router failures are reported in the output.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pppmon-poll [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string")
	fmt.Println("        Path to configuration file (default: searches for config.yaml)")
	fmt.Println("  -router string")
	fmt.Println("        Poll only the router with this id")
	fmt.Println("  -version")
	fmt.Println("        Show version information")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Poll every registered router")
	fmt.Println("  pppmon-poll -config /etc/pppmon/config.yaml")
	fmt.Println()
	fmt.Println("  # Poll a single router")
	fmt.Println("  pppmon-poll -router 5f0c6e5e-8a59-4d0a-9c8e-2f4f8545f9be")
}
