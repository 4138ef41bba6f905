// Package terminal manages interactive pseudo-terminal sessions.
//
// Each session owns a PTY master, a child shell process and exactly one
// reader goroutine that pumps output to the event sink until the PTY
// reaches end-of-stream. Commands address sessions by opaque ID through
// a mutex-guarded registry; the reader goroutine is the sole writer of
// the "session ended" transition.
//
// Closing a session performs graduated termination behind the
// Terminator interface: signal the process group, wait a short grace
// period, then force-kill. On platforms without process groups the
// child is killed directly.
package terminal
