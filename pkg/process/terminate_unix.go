//go:build !windows

package process

import (
	"syscall"
)

// SendTerminationSignal sends SIGTERM to the process group on Unix systems
func SendTerminationSignal(pid int) error {
	// Send SIGTERM to the process group (negative PID) so the entire
	// process tree is asked to terminate
	return syscall.Kill(-pid, syscall.SIGTERM)
}
