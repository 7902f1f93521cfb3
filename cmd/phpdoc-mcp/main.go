package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/phpdoc-mcp/internal/config"
	"github.com/dshills/phpdoc-mcp/internal/mcp"
	"github.com/dshills/phpdoc-mcp/internal/observability"
	"github.com/dshills/phpdoc-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	configPath := flag.String("config", "", "path to a phpdoc.yaml config file")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics and /health on this address (disabled when empty)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("PHPDoc MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		fmt.Printf("Schema Version: %s\n", storage.CurrentSchemaVersion)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for the MCP protocol
	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("PHPDoc MCP Server starting", "version", version)
	logger.Info("storage", "build_mode", storage.BuildMode, "driver", storage.DriverName, "db_path", cfg.Storage.DBPath)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	server.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metrics *observability.Server
	if *metricsAddr != "" {
		metrics = observability.NewServer(*metricsAddr, server.Health)
		metrics.Start()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	if metrics != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := metrics.Stop(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}

	logger.Info("server stopped")
}

// loadConfig reads an explicit config file, or looks for one in the
// working directory
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadFromDir(wd)
}
