package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/slipway-dev/slipway"
	"github.com/slipway-dev/slipway/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬  ┬┌─┐┬ ┬┌─┐┬ ┬
  └─┐│  │├─┘│││├─┤└┬┘
  └─┘┴─┘┴┴  └┴┘┴ ┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "slipway",
		Short: "Watch, rebuild, and serve web artifacts",
		Long: `Slipway keeps a build command running against your sources and
serves its output over HTTP.

  • Debounced filesystem watcher that respawns your build command
  • Static dev server for the dist directory
  • SPA-style 404 fallback
  • Optional Prometheus metrics endpoint
  • One-command publishing of dist to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		watchCmd(),
		publishCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the slipway ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// newLogger builds the console logger handed to the core packages.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// loadEnvironment locates the enclosing project and its configuration.
func loadEnvironment() (*slipway.Project, *config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	project, err := slipway.LoadProject(wd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(project.Root)
	if err != nil {
		return nil, nil, err
	}
	project.DistDir = cfg.DistPath(project.Root)
	return project, cfg, nil
}

// newWatch builds the watcher the serve and watch commands share.
func newWatch(project *slipway.Project, cfg *config.Config, logger *zap.Logger) *slipway.Watch {
	return slipway.NewWatch(project, slipway.WatchConfig{
		Paths:                 cfg.Watch.Paths,
		ExcludePaths:          cfg.Watch.Excludes,
		WorkspaceExcludePaths: cfg.Watch.WorkspaceExcludes,
		Debounce:              cfg.Watch.Debounce,
		Logger:                logger,
	})
}

// stopOnSignal terminates the supervised command when the CLI is
// interrupted. The command runs in its own process group, so a plain
// Ctrl+C would otherwise leave it behind.
func stopOnSignal(watch *slipway.Watch) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n  Shutting down...")
		if watch != nil {
			if err := watch.Stop(); err != nil {
				warn("stopping command: %s", err)
			}
		}
		os.Exit(130)
	}()
}
