package slipway

import "fmt"

// SetupError reports a failure to bring a watch loop or dev server up:
// registering watch roots, preparing the served directory, or binding the
// listener. It is fatal to the operation that returned it.
type SetupError struct {
	// Op names the setup step that failed, e.g. "watch", "mkdir", "bind".
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("slipway: setup %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// SpawnError reports a failed attempt to start or restart the supervised
// command. The watch loop treats it as fatal and shuts down rather than
// keep watching with nothing to supervise.
type SpawnError struct {
	// Cmd is the command line that failed to start.
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("slipway: spawn %q: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
