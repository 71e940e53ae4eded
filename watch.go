package slipway

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultDebounce is the minimum interval between respawns when
// WatchConfig.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// WatchConfig configures a Watch.
type WatchConfig struct {
	// Paths are the files or directories to watch recursively. Empty
	// means the project root.
	Paths []string

	// ExcludePaths are path prefixes whose events are ignored. Relative
	// entries are made absolute against the working directory.
	ExcludePaths []string

	// WorkspaceExcludePaths are project-root-relative prefixes whose
	// events are ignored. They only ever match paths under the root.
	WorkspaceExcludePaths []string

	// Debounce is the minimum time between respawns. Events arriving
	// sooner after a respawn are dropped. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger receives watch lifecycle and event logs. Nil disables
	// logging.
	Logger *zap.Logger
}

// processRunner is what the watch loop needs from a Supervisor.
type processRunner interface {
	Spawn(Command) error
	Respawn(Command) error
	Terminate(timeout time.Duration) error
}

// Watch kills and respawns a command whenever a relevant file under the
// watched roots changes. The project's dist directory is always excluded,
// so builds that write into it cannot retrigger themselves.
type Watch struct {
	project *Project
	cfg     WatchConfig
	logger  *zap.Logger
	runner  processRunner
}

// NewWatch returns a Watch over project configured by cfg.
func NewWatch(project *Project, cfg WatchConfig) *Watch {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watch{
		project: project,
		cfg:     cfg,
		logger:  logger,
		runner:  NewSupervisor(logger),
	}
}

// WatchPath adds a root to watch.
func (w *Watch) WatchPath(path string) *Watch {
	w.cfg.Paths = append(w.cfg.Paths, path)
	return w
}

// ExcludePath adds a path prefix whose events are ignored.
func (w *Watch) ExcludePath(path string) *Watch {
	w.cfg.ExcludePaths = append(w.cfg.ExcludePaths, path)
	return w
}

// ExcludeWorkspacePath adds a project-root-relative prefix whose events are
// ignored.
func (w *Watch) ExcludeWorkspacePath(rel string) *Watch {
	w.cfg.WorkspaceExcludePaths = append(w.cfg.WorkspaceExcludePaths, rel)
	return w
}

// WithDebounce sets the minimum time between respawns.
func (w *Watch) WithDebounce(d time.Duration) *Watch {
	w.cfg.Debounce = d
	return w
}

// Stop terminates the supervised command, if one is running. The watch
// loop itself keeps running; callers use Stop before exiting so the
// command's process group does not outlive them.
func (w *Watch) Stop() error {
	return w.runner.Terminate(DefaultTerminateTimeout)
}

// Run spawns cmd and keeps it running until the process exits. It blocks
// forever in normal operation; an error is returned only when setting up
// the watch fails, the initial spawn fails, or a respawn fails.
func (w *Watch) Run(cmd Command) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return &SetupError{Op: "watch", Err: err}
	}
	defer fw.Close()
	return w.run(fw, cmd)
}

func (w *Watch) run(fw *fsnotify.Watcher, cmd Command) error {
	filter, roots, explicit, err := w.compileFilter()
	if err != nil {
		return &SetupError{Op: "watch", Err: err}
	}

	for _, root := range roots {
		err := w.registerTree(fw, root, filter)
		switch {
		case err == nil:
			w.logger.Debug("watching path", zap.String("path", root))
		case explicit:
			// A missing explicit root should not take the whole
			// loop down.
			w.logger.Error("cannot watch path", zap.String("path", root), zap.Error(err))
		default:
			return &SetupError{Op: "watch", Err: err}
		}
	}

	if err := w.runner.Spawn(cmd); err != nil {
		return err
	}
	lastRespawn := time.Now()

	debounce := w.cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filter.excluded(ev.Name) {
				watchEventsTotal.WithLabelValues(outcomeExcluded).Inc()
				w.logger.Debug("excluded path changed", zap.String("path", ev.Name))
				continue
			}
			if filter.hidden(ev.Name) {
				watchEventsTotal.WithLabelValues(outcomeHidden).Inc()
				w.logger.Debug("hidden path changed", zap.String("path", ev.Name))
				continue
			}

			// Directories created under a watched root are watched
			// from then on.
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.registerTree(fw, ev.Name, filter); err != nil {
						w.logger.Warn("cannot watch new directory",
							zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}

			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			if time.Since(lastRespawn) < debounce {
				watchEventsTotal.WithLabelValues(outcomeDebounced).Inc()
				w.logger.Debug("change debounced", zap.String("path", ev.Name))
				continue
			}

			w.logger.Info("change detected, respawning",
				zap.String("path", ev.Name),
				zap.String("op", ev.Op.String()))
			if err := w.respawn(cmd, ev.Name); err != nil {
				return err
			}
			lastRespawn = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			watchEventsTotal.WithLabelValues(outcomeError).Inc()
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watch) respawn(cmd Command, trigger string) error {
	_, span := tracer.Start(context.Background(), "slipway.respawn",
		trace.WithAttributes(attribute.String("slipway.trigger_path", trigger)))
	defer span.End()

	if err := w.runner.Respawn(cmd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "respawn failed")
		watchEventsTotal.WithLabelValues(outcomeError).Inc()
		return err
	}
	respawnsTotal.Inc()
	watchEventsTotal.WithLabelValues(outcomeRespawned).Inc()
	return nil
}

// compileFilter canonicalizes the configured paths into a pathFilter and
// the list of roots to register. explicit reports whether the roots were
// configured rather than defaulted to the project root.
func (w *Watch) compileFilter() (filter *pathFilter, roots []string, explicit bool, err error) {
	roots = make([]string, 0, len(w.cfg.Paths))
	for _, p := range w.cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, false, err
		}
		roots = append(roots, abs)
	}

	excludes := make([]string, 0, len(w.cfg.ExcludePaths)+1)
	for _, p := range w.cfg.ExcludePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, false, err
		}
		excludes = append(excludes, abs)
	}

	wsExcludes := make([]string, 0, len(w.cfg.WorkspaceExcludePaths)+1)
	for _, p := range w.cfg.WorkspaceExcludePaths {
		wsExcludes = append(wsExcludes, filepath.Clean(p))
	}

	// Build output is never a reason to rebuild.
	if rel, ok := relativeTo(w.project.Root, w.project.DistDir); ok {
		wsExcludes = append(wsExcludes, rel)
	} else {
		excludes = append(excludes, w.project.DistDir)
	}

	filter = &pathFilter{
		root:       w.project.Root,
		roots:      roots,
		excludes:   excludes,
		wsExcludes: wsExcludes,
	}

	explicit = len(roots) > 0
	if !explicit {
		roots = []string{w.project.Root}
	}
	return filter, roots, explicit, nil
}

// registerTree adds root and every non-excluded directory under it to the
// watcher. Excluded and hidden subtrees are pruned; their events could
// never trigger a respawn, so watching them would only burn watch handles.
func (w *Watch) registerTree(fw *fsnotify.Watcher, root string, filter *pathFilter) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fw.Add(root)
	}

	return godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if filter.excluded(path) || filter.hidden(path) {
				return filepath.SkipDir
			}
			return fw.Add(path)
		},
	})
}
