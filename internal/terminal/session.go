package terminal

import (
	"os"
	"os/exec"
	"sync"
	"time"
)

// Session represents an active pseudo-terminal session
type Session struct {
	ID         string
	Shell      string
	WorkingDir string
	StartedAt  time.Time

	// Process management
	cmd  *exec.Cmd
	ptmx *os.File

	// writeMu serializes writes to the PTY master; resizeMu serializes
	// geometry changes. They are independent so a long write does not
	// block a resize.
	writeMu  sync.Mutex
	resizeMu sync.Mutex

	cols int
	rows int
}

// Geometry returns the current terminal dimensions
func (s *Session) Geometry() (cols, rows int) {
	s.resizeMu.Lock()
	defer s.resizeMu.Unlock()
	return s.cols, s.rows
}

// SessionInfo is the public representation of a session
type SessionInfo struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
}

func (s *Session) info() SessionInfo {
	cols, rows := s.Geometry()
	return SessionInfo{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Cols:       cols,
		Rows:       rows,
		StartedAt:  s.StartedAt,
	}
}
