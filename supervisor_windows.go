//go:build windows

package slipway

import (
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// procHandle owns the kill-on-close job object the spawned process was
// assigned to, so termination takes the whole process tree with it.
type procHandle struct {
	job windows.Handle
}

func startProcess(cmd *exec.Cmd) (*procHandle, error) {
	job, err := createJobObject()
	if err != nil {
		job = 0
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}

	if err := cmd.Start(); err != nil {
		if job != 0 {
			windows.CloseHandle(job)
		}
		return nil, err
	}

	if job != 0 {
		if err := assignProcessToJob(job, cmd.Process.Pid); err != nil {
			windows.CloseHandle(job)
			job = 0
		}
	}

	return &procHandle{job: job}, nil
}

// terminate closes the job object, which kills the tree; without a job it
// falls back to killing the process alone.
func (h *procHandle) terminate(p *os.Process) {
	if h.job != 0 {
		windows.CloseHandle(h.job)
		h.job = 0
		return
	}
	_ = p.Kill()
}

func (h *procHandle) kill(p *os.Process) {
	if h.job != 0 {
		windows.CloseHandle(h.job)
		h.job = 0
	}
	_ = p.Kill()
}

func createJobObject() (windows.Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, err
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{}
	info.BasicLimitInformation.LimitFlags = windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE
	_, err = windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		windows.CloseHandle(job)
		return 0, err
	}

	return job, nil
}

func assignProcessToJob(job windows.Handle, pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(handle)

	return windows.AssignProcessToJobObject(job, handle)
}
