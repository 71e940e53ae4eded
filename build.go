package slipway

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Artifacts locates the files a build produced under the dist directory.
type Artifacts struct {
	// Dir is the directory the artifacts were written to.
	Dir string

	// MainScript is the loader script emitted alongside the binary, if
	// the build produces one.
	MainScript string

	// MainBinary is the primary build output (for wasm builds, the .wasm
	// file).
	MainBinary string
}

// Builder produces a dist directory from a package. slipway never compiles
// anything itself; builds are delegated through this interface.
type Builder interface {
	Build(ctx context.Context, pkg string) (Artifacts, error)
}

// Optimizer post-processes a built binary and returns the path of the
// optimized result.
type Optimizer interface {
	Optimize(ctx context.Context, binary string) (string, error)
}

// CommandBuilder satisfies Builder by running a configured command and
// reporting the artifacts that command is expected to produce. It is how an
// external build tool plugs in without slipway knowing how to compile.
type CommandBuilder struct {
	// Command is the build command to run. A non-empty pkg argument to
	// Build is appended to its arguments.
	Command Command

	// Artifacts is returned verbatim after a successful run.
	Artifacts Artifacts
}

// Build runs the configured command, inheriting stdout and stderr.
func (b CommandBuilder) Build(ctx context.Context, pkg string) (Artifacts, error) {
	args := b.Command.Args
	if pkg != "" {
		args = append(append([]string{}, args...), pkg)
	}
	cmd := exec.CommandContext(ctx, b.Command.Name, args...)
	cmd.Dir = b.Command.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(b.Command.Env) > 0 {
		cmd.Env = append(os.Environ(), b.Command.Env...)
	}
	if err := cmd.Run(); err != nil {
		return Artifacts{}, fmt.Errorf("slipway: build %q: %w", b.Command.String(), err)
	}
	return b.Artifacts, nil
}
