package proc

import (
	"path/filepath"
	"strings"
)

// Status summarizes what is running inside a worktree directory
type Status string

const (
	// StatusAgentRunning means an AI coding agent has its working
	// directory inside the worktree. Takes precedence over a dev server.
	StatusAgentRunning Status = "agent_running"
	// StatusDevServer means a development server is running there
	StatusDevServer Status = "dev_server"
	// StatusNone means nothing of interest was found
	StatusNone Status = "none"
)

// isDevServer reports whether a command line looks like a running
// development server. Matching is case-insensitive over the joined
// command line.
func isDevServer(cmdline []string) bool {
	cmd := strings.ToLower(strings.Join(cmdline, " "))

	switch {
	case strings.Contains(cmd, "npm") && (strings.Contains(cmd, " dev") || strings.Contains(cmd, " start")):
	case strings.Contains(cmd, "bun") && strings.Contains(cmd, " dev"):
	case strings.Contains(cmd, "vite") && !strings.Contains(cmd, "build"):
	case strings.Contains(cmd, "next dev"):
	case strings.Contains(cmd, "next start"):
	case strings.Contains(cmd, "yarn") && strings.Contains(cmd, " dev"):
	case strings.Contains(cmd, "pnpm") && strings.Contains(cmd, " dev"):
	case strings.Contains(cmd, "webpack-dev-server"):
	case strings.Contains(cmd, "webpack serve"):
	case strings.Contains(cmd, "react-scripts start"):
	case strings.Contains(cmd, "ng serve"):
	case strings.Contains(cmd, "nuxt dev"):
	case strings.Contains(cmd, "remix dev"):
	case strings.Contains(cmd, "astro dev"):
	case strings.Contains(cmd, "svelte-kit dev"):
	case strings.Contains(cmd, "cargo watch"):
	case strings.Contains(cmd, "cargo run"):
	case strings.Contains(cmd, "python") && strings.Contains(cmd, "manage.py") && strings.Contains(cmd, "runserver"):
	case strings.Contains(cmd, "flask") && strings.Contains(cmd, "run"):
	case strings.Contains(cmd, "uvicorn"), strings.Contains(cmd, "gunicorn"):
	case strings.Contains(cmd, "nodemon"):
	case strings.Contains(cmd, "ts-node-dev"):
	case strings.Contains(cmd, "tsx watch"):
	default:
		return false
	}
	return true
}

// isAgent matches AI coding agents by process name or command line
func isAgent(cmdline []string, name string) bool {
	cmd := strings.ToLower(strings.Join(cmdline, " "))
	name = strings.ToLower(name)

	for _, needle := range []string{"claude", "droid", "opencode", "aider", "cursor", "codeium", "copilot", "tabnine"} {
		if strings.Contains(name, needle) {
			return true
		}
	}
	for _, needle := range []string{"claude", "droid", "opencode", "aider", "cursor-agent", "codeium", "github-copilot", "amp ", "/amp"} {
		if strings.Contains(cmd, needle) {
			return true
		}
	}
	return false
}

// inWorktree reports whether cwd equals or falls under the worktree path
func inWorktree(cwd, worktree string) bool {
	if cwd == "" {
		return false
	}
	return cwd == worktree || strings.HasPrefix(cwd, worktree+string(filepath.Separator))
}
