package types

// TerminalOutput carries a decoded chunk of terminal output to the UI
type TerminalOutput struct {
	TerminalID string `json:"terminal_id"`
	Data       string `json:"data"`
}

// TerminalClosed signals that a terminal session has ended
type TerminalClosed struct {
	TerminalID string `json:"terminal_id"`
}

// GitHeadChange signals a branch change (HEAD rewrite) in a worktree
type GitHeadChange struct {
	RepoPath     string `json:"repo_path"`
	WorktreePath string `json:"worktree_path"`
	ChangeType   string `json:"change_type"`
}

// GitIndexChange signals that a worktree's git index was rewritten
type GitIndexChange struct {
	RepoPath     string `json:"repo_path"`
	WorktreePath string `json:"worktree_path"`
}

// WorktreeChange signals a worktree added to or removed from a repository
type WorktreeChange struct {
	RepoPath   string `json:"repo_path"`
	ChangeType string `json:"change_type"`
}

// Worktree change kinds
const (
	WorktreeAdded   = "added"
	WorktreeRemoved = "removed"
)

// HeadChangeBranch is the change kind carried by GitHeadChange
const HeadChangeBranch = "branch"
