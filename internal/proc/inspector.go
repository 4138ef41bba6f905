package proc

import (
	"github.com/shirou/gopsutil/v4/process"
)

// entry is the slice of process state the classifier needs
type entry struct {
	name    string
	cmdline []string
	cwd     string
}

// lister enumerates candidate processes. Swappable so tests do not
// depend on what happens to be running on the host.
type lister func() []entry

// Inspector classifies what is running inside worktree directories
type Inspector struct {
	list lister
}

// NewInspector creates an inspector backed by the live process table
func NewInspector() *Inspector {
	return &Inspector{list: liveProcesses}
}

func liveProcesses() []entry {
	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	out := make([]entry, 0, len(procs))
	for _, p := range procs {
		// Processes we cannot inspect (gone, or owned by another user)
		// are skipped rather than failing the whole scan.
		cwd, err := p.Cwd()
		if err != nil || cwd == "" {
			continue
		}
		name, _ := p.Name()
		cmdline, _ := p.CmdlineSlice()
		out = append(out, entry{name: name, cmdline: cmdline, cwd: cwd})
	}
	return out
}

// WorktreeStatus scans the process table for one worktree. An agent
// anywhere under the worktree wins over a dev server.
func (i *Inspector) WorktreeStatus(worktreePath string) Status {
	var hasAgent, hasDev bool

	for _, e := range i.list() {
		if !inWorktree(e.cwd, worktreePath) {
			continue
		}
		if isAgent(e.cmdline, e.name) {
			hasAgent = true
		}
		if isDevServer(e.cmdline) {
			hasDev = true
		}
		if hasAgent && hasDev {
			break
		}
	}

	switch {
	case hasAgent:
		return StatusAgentRunning
	case hasDev:
		return StatusDevServer
	default:
		return StatusNone
	}
}

// AllWorktreeStatus classifies several worktrees with a single pass
// over the process table. Every requested path appears in the result.
func (i *Inspector) AllWorktreeStatus(worktreePaths []string) map[string]Status {
	results := make(map[string]Status, len(worktreePaths))
	for _, path := range worktreePaths {
		results[path] = StatusNone
	}

	for _, e := range i.list() {
		if e.cwd == "" {
			continue
		}

		agent := isAgent(e.cmdline, e.name)
		dev := isDevServer(e.cmdline)
		if !agent && !dev {
			continue
		}

		for _, path := range worktreePaths {
			if !inWorktree(e.cwd, path) {
				continue
			}
			if agent {
				results[path] = StatusAgentRunning
			} else if results[path] != StatusAgentRunning {
				results[path] = StatusDevServer
			}
		}
	}

	return results
}
