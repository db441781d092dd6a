//go:build !windows

// Package daemon moves yadl into the background.
package daemon

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// envMarker tells the background copy that it already detached.
const envMarker = "YADL_DETACHED"

// IsChild reports whether this process was started by Detach.
func IsChild() bool { return os.Getenv(envMarker) == "1" }

// Detach starts the running binary again with the same arguments, in a new
// session with its standard streams on /dev/null. It returns the pid of the
// background process; the caller is expected to exit.
func Detach() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, errors.Wrap(err, "daemon: find executable")
	}
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, errors.Wrap(err, "daemon")
	}
	defer devnull.Close()

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), envMarker+"=1")
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(err, "daemon: start")
	}
	pid := cmd.Process.Pid
	return pid, cmd.Process.Release()
}

// Settle moves the background process to / so it does not keep the
// directory it was started from busy. Relative paths must be resolved
// before calling it.
func Settle() error {
	return errors.Wrap(os.Chdir("/"), "daemon")
}
