package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipway-dev/slipway"
)

func watchCmd() *cobra.Command {
	var (
		paths      []string
		excludes   []string
		wsExcludes []string
		debounce   time.Duration
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "watch -- command [args...]",
		Short: "Run a command and respawn it on file changes",
		Long: `Run a command, watch the project for changes, and respawn the
command whenever a relevant file changes.

Hidden files, the dist directory, and excluded paths never trigger
a respawn. Changes landing within the debounce window after a
respawn are dropped.

Examples:
  slipway watch -- make dist
  slipway watch --path=src --debounce=500ms -- go run ./cmd/build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(paths, excludes, wsExcludes, debounce, verbose, args)
		},
	}

	cmd.Flags().StringArrayVar(&paths, "path", nil, "Directory to watch (repeatable; default project root)")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Path never watched (repeatable)")
	cmd.Flags().StringArrayVar(&wsExcludes, "exclude-workspace", nil, "Project-relative path never watched (repeatable)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet window between respawns (default 2s)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runWatch(paths, excludes, wsExcludes []string, debounce time.Duration, verbose bool, argv []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	project, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	// Flags extend the configured watch settings
	cfg.Watch.Paths = append(cfg.Watch.Paths, paths...)
	cfg.Watch.Excludes = append(cfg.Watch.Excludes, excludes...)
	cfg.Watch.WorkspaceExcludes = append(cfg.Watch.WorkspaceExcludes, wsExcludes...)
	if debounce > 0 {
		cfg.Watch.Debounce = debounce
	}

	if len(argv) == 0 {
		if name, cmdArgs, ok := cfg.Command(); ok {
			argv = append([]string{name}, cmdArgs...)
		}
	}
	if len(argv) == 0 {
		return errors.New("no command to run; pass one after -- or set build.command in slipway.yaml")
	}

	command := slipway.Command{Name: argv[0], Args: argv[1:], Dir: project.Root}
	watch := newWatch(project, cfg, logger)
	stopOnSignal(watch)

	info("Watching %s", project.Root)
	info("Running %s", command.String())

	return watch.Run(command)
}
