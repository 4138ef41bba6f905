package types

// SpawnTerminalRequest creates a new interactive terminal session
type SpawnTerminalRequest struct {
	Cwd      string `json:"cwd" binding:"required"`
	Cols     int    `json:"cols"`
	Rows     int    `json:"rows"`
	DarkMode bool   `json:"dark_mode"`
}

// SpawnCommandRequest creates a terminal running a command, then an
// interactive shell
type SpawnCommandRequest struct {
	Cwd      string   `json:"cwd" binding:"required"`
	Command  string   `json:"command" binding:"required"`
	Args     []string `json:"args"`
	Cols     int      `json:"cols"`
	Rows     int      `json:"rows"`
	DarkMode bool     `json:"dark_mode"`
}

// TerminalInputRequest writes bytes to a terminal session
type TerminalInputRequest struct {
	Data string `json:"data" binding:"required"`
}

// ResizeRequest changes terminal geometry
type ResizeRequest struct {
	Cols int `json:"cols" binding:"required"`
	Rows int `json:"rows" binding:"required"`
}

// WatchRequest starts watching a repository and its worktrees
type WatchRequest struct {
	RepoPath      string   `json:"repo_path" binding:"required"`
	WorktreePaths []string `json:"worktree_paths"`
}

// UnwatchRequest stops watching a repository
type UnwatchRequest struct {
	RepoPath string `json:"repo_path" binding:"required"`
}

// WorktreeStatusRequest queries process status for a set of worktrees
type WorktreeStatusRequest struct {
	WorktreePaths []string `json:"worktree_paths" binding:"required"`
}
