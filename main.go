package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/pkg/app"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debug       = flag.Bool("debug", false, "Enable debug mode (sets logger level to debug)")
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

	// Print banner
	printBanner()

	// Create application instance
	application, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		cfg := application.GetConfig()
		cfg.Logger.Level = "debug"
		logger.SetLogLevel("debug")
		logger.InitLog.Info("Debug mode enabled")
	}

	// Start the application
	if err := application.Start(); err != nil {
		logger.InitLog.Fatalf("Failed to start application: %v", err)
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.InitLog.Infof("Received signal: %v, shutting down...", sig)

	// Graceful shutdown
	application.Stop()

	logger.InitLog.Info("Application stopped successfully")
}

func printBanner() {
	banner := `
 ____  ____  ____
|  _ \|  _ \|  _ \ _ __ ___   ___  _ __
| |_) | |_) | |_) | '_ ` + "`" + ` _ \ / _ \| '_ \
|  __/|  __/|  __/| | | | | | (_) | | | |
|_|   |_|   |_|   |_| |_| |_|\___/|_| |_|

`
	fmt.Println(banner)
	fmt.Printf("Version: %s | Build Time: %s | Git Commit: %s\n\n", version, buildTime, gitCommit)
}

func printVersion() {
	fmt.Printf("Skylink PPPoE Monitor\n")
	fmt.Printf("Version:     %s\n", version)
	fmt.Printf("Build Time:  %s\n", buildTime)
	fmt.Printf("Git Commit:  %s\n", gitCommit)
}

func printHelp() {
	fmt.Println("Skylink PPPoE Monitor - Router Polling & Session Reconciliation Engine")
	fmt.Println()
	fmt.Println("Keeps the session store synchronized with a fleet of MikroTik access")
	fmt.Println("concentrators and attributes every session to the owning reseller.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pppmon [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string")
	fmt.Println("        Path to configuration file (default: searches for config.yaml)")
	fmt.Println("  -debug")
	fmt.Println("        Enable debug mode (sets logger level to debug)")
	fmt.Println("  -version")
	fmt.Println("        Show version information")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  PPPMON_CONFIG_PATH")
	fmt.Println("        Alternative way to specify configuration file path")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Start the API server with default configuration")
	fmt.Println("  pppmon")
	fmt.Println()
	fmt.Println("  # Start with specific configuration")
	fmt.Println("  pppmon -config /etc/pppmon/config.yaml")
	fmt.Println()
	fmt.Println("  # Run a single poll without the server (batch mode)")
	fmt.Println("  pppmon-poll -config /etc/pppmon/config.yaml")
	fmt.Println()
	fmt.Println("Default Service URL:")
	fmt.Println("  NBI API:  http://localhost:8080")
}
