//go:build windows

package terminal

import (
	"os/exec"
	"time"
)

// NewTerminator returns the direct-kill terminator. Windows has no
// process-group signaling, so the child handle is killed outright.
func NewTerminator() Terminator {
	return processTerminator{}
}

type processTerminator struct{}

func (processTerminator) Terminate(cmd *exec.Cmd, _ time.Duration) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
