// Package gitwatch watches git repositories for branch, index and
// worktree-topology changes.
//
// A watch session indexes each worktree's HEAD and index files (following
// gitdir indirection for linked worktrees) and watches the metadata
// directories plus the repository's .git/worktrees administration
// directory. Raw filesystem events are classified into domain events and
// pushed to the UI sink; unmatched events are expected churn and are
// silently dropped.
//
// Git rewrites HEAD and index via rename/replace, which some platforms
// and filesystems do not reliably surface as native modify events, so a
// bounded mtime poller backs up the native event stream.
package gitwatch
