//go:build unix

package terminal

import (
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// NewTerminator returns the process-group terminator. The PTY child is
// started as a session leader, so its pgid equals its pid and signaling
// the negative pid reaches every process the shell spawned.
func NewTerminator() Terminator {
	return groupTerminator{}
}

type groupTerminator struct{}

func (groupTerminator) Terminate(cmd *exec.Cmd, grace time.Duration) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid

	_ = unix.Kill(-pid, unix.SIGTERM)
	time.Sleep(grace)
	_ = unix.Kill(-pid, unix.SIGKILL)
}
