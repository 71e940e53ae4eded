package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slipway-dev/slipway"
)

func serveCmd() *cobra.Command {
	var (
		port     int
		host     string
		notFound string
		metrics  bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [-- command [args...]]",
		Short: "Serve the dist directory over HTTP",
		Long: `Serve the project's dist directory on a local HTTP server.

When a command is given after --, it is spawned first and respawned
whenever a watched file changes, while the server keeps serving
whatever the command writes into the dist directory. Without a
command the server only serves what is already there.

Examples:
  slipway serve
  slipway serve --port=9000 --not-found=index.html
  slipway serve -- make dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host, notFound, metrics, verbose, args)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from slipway.yaml)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from slipway.yaml)")
	cmd.Flags().StringVar(&notFound, "not-found", "", "File served instead of a 404, relative to dist")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics on "+slipway.MetricsPath)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(port int, host, notFound string, metrics, verbose bool, argv []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	project, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if port > 0 {
		cfg.Serve.Port = port
	}
	if host != "" {
		cfg.Serve.Host = host
	}
	if notFound != "" {
		cfg.Serve.NotFound = notFound
	}
	if metrics {
		cfg.Serve.Metrics = true
	}

	serverCfg := slipway.ServerConfig{
		Host:     cfg.Serve.Host,
		Port:     cfg.Serve.Port,
		NotFound: cfg.Serve.NotFound,
		Metrics:  cfg.Serve.Metrics,
		Logger:   logger,
	}

	if len(argv) == 0 {
		if name, cmdArgs, ok := cfg.Command(); ok {
			argv = append([]string{name}, cmdArgs...)
		}
	}

	var watch *slipway.Watch
	if len(argv) > 0 {
		serverCfg.Command = &slipway.Command{Name: argv[0], Args: argv[1:], Dir: project.Root}
		watch = newWatch(project, cfg, logger)
		serverCfg.Watch = watch
	}
	stopOnSignal(watch)

	server := slipway.NewDevServer(project, serverCfg)

	printBanner()
	info("Serving %s", project.DistDir)
	if serverCfg.Command != nil {
		info("Running %s", serverCfg.Command)
	}
	success("Listening on http://%s", server.Addr())
	fmt.Println()

	return server.Start(project.DistDir)
}
