// Package main is the entry point for the pathhint listener.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vyrodovalexey/pathhint/internal/config"
	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	listenAddr  string
	logLevel    string
	logFormat   string
	watchConfig bool
	showVersion bool
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	observability.BridgeOTelLogger(logger)

	cfg, err := loadAndValidateConfig(flags, logger)
	if err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", observability.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForSignal(cancel, logger)

	if err := run(ctx, app, flags, logger); err != nil {
		var bindErr *util.BindError
		if errors.As(err, &bindErr) {
			logger.Fatal("failed to bind listener",
				observability.String("address", bindErr.Address),
				observability.Error(err),
			)
		}
		logger.Fatal("pathhint stopped with error", observability.Error(err))
	}

	logger.Info("pathhint stopped")
}

// parseFlags parses command line flags with PATHHINT_* environment fallbacks.
func parseFlags(args []string) (cliFlags, error) {
	fs := flag.NewFlagSet("pathhint", flag.ContinueOnError)

	var flags cliFlags
	fs.StringVar(&flags.configPath, "config", getEnvOrDefault("config", ""),
		"Path to configuration file (built-in routes when empty)")
	fs.StringVar(&flags.listenAddr, "listen", getEnvOrDefault("listen", ""),
		"Listen address host:port, overrides spec.listener.address")
	fs.StringVar(&flags.logLevel, "log-level", getEnvOrDefault("log-level", "info"),
		"Log level (debug, info, warn, error)")
	fs.StringVar(&flags.logFormat, "log-format", getEnvOrDefault("log-format", "json"),
		"Log format (json, console)")
	fs.BoolVar(&flags.watchConfig, "watch-config", getEnvBool("watch-config", true),
		"Report edits to the configuration file")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	return flags, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "pathhint version %s\n", version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:   flags.logLevel,
		Format:  flags.logFormat,
		Service: config.DefaultServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads the configuration file, or the built-in
// configuration when no path is given, and applies the -listen override.
func loadAndValidateConfig(flags cliFlags, logger observability.Logger) (*config.ServerConfig, error) {
	logger.Info("starting pathhint",
		observability.String("version", version),
		observability.String("config", flags.configPath),
	)

	var cfg *config.ServerConfig
	if flags.configPath == "" {
		cfg = config.DefaultConfig()
	} else {
		var err error
		cfg, err = config.LoadConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
	}

	if flags.listenAddr != "" {
		cfg.Spec.Listener.Address = flags.listenAddr
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		observability.String("name", cfg.Metadata.Name),
		observability.String("address", cfg.Spec.Listener.Address),
		observability.Int("routes", len(cfg.Spec.Routes)),
		observability.Bool("admission", cfg.Spec.Admission.Enabled()),
		observability.Bool("metrics", cfg.MetricsEnabled()),
	)

	return cfg, nil
}
