package slipway

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTerminateTimeout bounds how long Terminate waits for a
	// process to exit gracefully before force-killing it.
	DefaultTerminateTimeout = 2 * time.Second

	terminatePollInterval = 200 * time.Millisecond
)

// Command describes the process a Watch keeps alive: the build or run
// command respawned after every relevant filesystem change. A fresh
// invocation is materialized per spawn; stdout and stderr are inherited
// from the parent.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. Empty means the parent's.
	Dir string

	// Env entries are appended to the parent environment.
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// exec materializes a single-use exec.Cmd for one spawn.
func (c Command) exec() *exec.Cmd {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// process is one supervised child: the running command, its platform
// handle, and the channel its wait goroutine reports on. The goroutine is
// started at spawn so the process is reaped exactly once, whichever way it
// exits.
type process struct {
	cmd    *exec.Cmd
	handle *procHandle
	done   chan error
}

// Supervisor owns at most one child process at a time: spawn it, terminate
// it, or replace it. Methods are safe for concurrent use, though a watch
// loop drives its Supervisor from a single goroutine.
type Supervisor struct {
	logger *zap.Logger

	mu   sync.Mutex
	proc *process
}

// NewSupervisor returns an empty Supervisor. A nil logger disables logging.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{logger: logger}
}

// Running reports whether a process currently occupies the slot.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// Spawn starts cmd as the supervised process. The slot must be empty:
// spawning over a live process is a bug, not a restart.
func (s *Supervisor) Spawn(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawn(cmd)
}

func (s *Supervisor) spawn(cmd Command) error {
	if s.proc != nil {
		return &SpawnError{Cmd: cmd.String(), Err: errors.New("previous process still running")}
	}

	c := cmd.exec()
	handle, err := startProcess(c)
	if err != nil {
		return &SpawnError{Cmd: cmd.String(), Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Wait()
	}()

	s.proc = &process{cmd: c, handle: handle, done: done}
	s.logger.Info("process started",
		zap.String("command", cmd.String()),
		zap.Int("pid", c.Process.Pid))
	return nil
}

// Terminate stops the supervised process: ask nicely first, then insist.
// It requests a graceful stop, polls for exit every 200ms until timeout
// elapses (0 means DefaultTerminateTimeout), then force-kills the process
// and its children and reaps it. Terminating an empty slot is a no-op.
func (s *Supervisor) Terminate(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminate(timeout)
}

func (s *Supervisor) terminate(timeout time.Duration) error {
	p := s.proc
	if p == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTerminateTimeout
	}

	pid := p.cmd.Process.Pid
	p.handle.terminate(p.cmd.Process)

	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-p.done:
			s.proc = nil
			s.logger.Debug("process exited", zap.Int("pid", pid))
			return nil
		case <-time.After(terminatePollInterval):
			if time.Now().After(deadline) {
				p.handle.kill(p.cmd.Process)
				<-p.done
				s.proc = nil
				s.logger.Debug("process killed", zap.Int("pid", pid))
				return nil
			}
		}
	}
}

// Respawn terminates the current process, if any, and spawns cmd in its
// place.
func (s *Supervisor) Respawn(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.terminate(DefaultTerminateTimeout); err != nil {
		return err
	}
	return s.spawn(cmd)
}
