//go:build !windows

package slipway

import (
	"os"
	"os/exec"
	"syscall"
)

// procHandle tracks the process group a spawn created so termination can
// reach the command's children too.
type procHandle struct {
	pgid int
}

func startProcess(cmd *exec.Cmd) (*procHandle, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &procHandle{}
	if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
		h.pgid = pgid
	}
	return h, nil
}

// terminate asks the process group to stop.
func (h *procHandle) terminate(p *os.Process) {
	if h.pgid > 0 {
		_ = syscall.Kill(-h.pgid, syscall.SIGTERM)
	} else {
		_ = p.Signal(syscall.SIGTERM)
	}
}

// kill stops the process group without appeal.
func (h *procHandle) kill(p *os.Process) {
	if h.pgid > 0 {
		_ = syscall.Kill(-h.pgid, syscall.SIGKILL)
	} else {
		_ = p.Kill()
	}
}
