package terminal

import (
	"os/exec"
	"time"
)

// Terminator performs graduated shutdown of a session's child process.
// The contract is platform-independent (signal, wait, force-kill) even
// though the implementation is not.
type Terminator interface {
	Terminate(cmd *exec.Cmd, grace time.Duration)
}
