package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/logging"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/monitoring"
	"github.com/autopilot-hq/autopilot/backend/internal/shared/id"
	"github.com/autopilot-hq/autopilot/backend/internal/shared/types"
)

// ErrNotFound is returned when a command addresses a session absent
// from the registry (already closed, or never created).
var ErrNotFound = errors.New("terminal session not found")

const (
	defaultCols       = 80
	defaultRows       = 24
	defaultReadBuffer = 4096
	defaultKillGrace  = 100 * time.Millisecond
)

// Manager owns the terminal session registry
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	sink       events.Sink
	log        *logging.Logger
	metrics    *monitoring.Metrics
	terminator Terminator

	shell      string
	killGrace  time.Duration
	readBuffer int
}

// NewManager creates a session manager publishing to the given sink
func NewManager(sink events.Sink, log *logging.Logger) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		sink:       sink,
		log:        log,
		terminator: NewTerminator(),
		killGrace:  defaultKillGrace,
		readBuffer: defaultReadBuffer,
	}
}

// WithMetrics attaches a metrics collector
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithShell overrides the platform shell lookup
func (m *Manager) WithShell(shell string) *Manager {
	m.shell = shell
	return m
}

// WithKillGrace sets the pause between the terminate and kill signals
func (m *Manager) WithKillGrace(grace time.Duration) *Manager {
	if grace > 0 {
		m.killGrace = grace
	}
	return m
}

// WithReadBuffer sets the chunk size of the PTY read loop
func (m *Manager) WithReadBuffer(size int) *Manager {
	if size > 0 {
		m.readBuffer = size
	}
	return m
}

func (m *Manager) resolveShell() string {
	if m.shell != "" {
		return m.shell
	}
	return DefaultShell()
}

// Spawn starts an interactive shell on a new PTY and returns the
// session ID. Output is pumped to the event sink until end-of-stream.
func (m *Manager) Spawn(cwd string, cols, rows int, darkMode bool) (string, error) {
	shell := m.resolveShell()

	var argv []string
	if runtime.GOOS != "windows" && loginCapable(shell) {
		argv = []string{"-li"}
	}

	return m.spawn(shell, argv, cwd, cols, rows, darkMode)
}

// SpawnCommand starts a terminal running the given command inside the
// shell, then replaces it with an interactive shell so the terminal
// stays usable after the command finishes.
func (m *Manager) SpawnCommand(cwd, command string, args []string, cols, rows int, darkMode bool) (string, error) {
	shell := m.resolveShell()
	full := commandLine(command, args)

	var argv []string
	if runtime.GOOS == "windows" {
		argv = []string{"/c", full}
	} else {
		argv = []string{"-c", full + "; exec $SHELL"}
	}

	return m.spawn(shell, argv, cwd, cols, rows, darkMode)
}

func (m *Manager) spawn(shell string, argv []string, cwd string, cols, rows int, darkMode bool) (string, error) {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}

	cmd := exec.Command(shell, argv...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.Env = append(cmd.Env, sessionEnv(darkMode)...)
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start pty: %w", err)
	}

	session := &Session{
		ID:         id.NewTerminalID().String(),
		Shell:      shell,
		WorkingDir: cwd,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		cols:       cols,
		rows:       rows,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.TerminalsSpawned.Inc()
		m.metrics.TerminalsActive.Inc()
	}

	m.log.Info("terminal spawned",
		zap.String("terminal_id", session.ID),
		zap.String("shell", shell),
		zap.String("cwd", cwd),
	)

	go m.pump(session)

	return session.ID, nil
}

// pump reads PTY output until end-of-stream or error, republishing each
// chunk tagged with the session ID. It owns the "session ended"
// transition: remove from the registry, then publish terminal-closed.
func (m *Manager) pump(s *Session) {
	buf := make([]byte, m.readBuffer)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			m.sink.Publish(events.Event{
				Type: events.TerminalOutput,
				Payload: types.TerminalOutput{
					TerminalID: s.ID,
					Data:       lossyString(buf[:n]),
				},
			})
		}
		if err != nil {
			break
		}
	}

	m.remove(s.ID)
	s.ptmx.Close()
	// Reap the child; read errors are indistinguishable from a clean
	// exit as far as the UI is concerned.
	_ = s.cmd.Wait()

	m.sink.Publish(events.Event{
		Type:    events.TerminalClosed,
		Payload: types.TerminalClosed{TerminalID: s.ID},
	})

	m.log.Debug("terminal closed", zap.String("terminal_id", s.ID))
}

// Write sends bytes to a session's PTY. Writes to the same session are
// serialized and arrive in order.
func (m *Manager) Write(sessionID string, data []byte) error {
	s := m.get(sessionID)
	if s == nil {
		return ErrNotFound
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.ptmx.Write(data); err != nil {
		return fmt.Errorf("terminal write: %w", err)
	}
	if m.metrics != nil {
		m.metrics.TerminalWrites.Inc()
	}
	return nil
}

// Resize changes terminal geometry on the master side
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	s := m.get(sessionID)
	if s == nil {
		return ErrNotFound
	}

	s.resizeMu.Lock()
	defer s.resizeMu.Unlock()

	if err := pty.Setsize(s.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("terminal resize: %w", err)
	}

	s.cols = cols
	s.rows = rows
	return nil
}

// Close removes the session and terminates its process group. Idempotent:
// closing an unknown or already-closed session is a no-op. Close does not
// wait for the reader goroutine; killing the child closes the PTY from
// the far end, which the pump observes as end-of-stream.
func (m *Manager) Close(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	if m.metrics != nil {
		m.metrics.TerminalsActive.Dec()
		m.metrics.TerminalsClosed.Inc()
	}

	m.terminator.Terminate(s.cmd, m.killGrace)

	m.log.Info("terminal close requested", zap.String("terminal_id", sessionID))
	return nil
}

// CloseAll terminates every session, used on shutdown
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for sessionID := range m.sessions {
		ids = append(ids, sessionID)
	}
	m.mu.Unlock()

	for _, sessionID := range ids {
		_ = m.Close(sessionID)
	}
}

// List returns a snapshot of all live sessions
func (m *Manager) List() []SessionInfo {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.info())
	}
	return infos
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) get(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

// remove deletes the session if still registered. The pump and Close
// race here harmlessly: map removal is idempotent and only the first
// caller adjusts the gauge.
func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if ok && m.metrics != nil {
		m.metrics.TerminalsActive.Dec()
		m.metrics.TerminalsClosed.Inc()
	}
}

// lossyString decodes bytes permissively: invalid UTF-8 sequences are
// replaced, never fatal.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
