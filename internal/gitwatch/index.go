package gitwatch

import (
	"os"
	"path/filepath"
	"strings"
)

const gitdirPrefix = "gitdir: "

// pathIndex maps canonicalized git metadata paths to worktree identity.
// Built once at watch start and read-only afterwards.
type pathIndex struct {
	headToWorktree  map[string]string
	indexToWorktree map[string]string

	// adminDir is the canonical .git/worktrees directory, empty when the
	// repository has no linked worktrees.
	adminDir string

	// watchDirs are the canonical metadata directories to watch
	// non-recursively.
	watchDirs []string

	// pollTargets are the canonical HEAD/index files covered by the
	// mtime fallback poller.
	pollTargets []string
}

// canonicalize resolves symlinks and relative segments so path-identity
// matching does not miss on variant spellings. Falls back to the input
// when resolution fails (e.g. the path no longer exists).
func canonicalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// resolveGitDir locates a worktree's git metadata directory. A linked
// worktree's .git may be an indirection file pointing into the shared
// administrative store.
func resolveGitDir(worktreePath string) (string, bool) {
	gitPath := filepath.Join(worktreePath, ".git")

	info, err := os.Stat(gitPath)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		return gitPath, true
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", false
	}
	line := strings.TrimSpace(string(content))
	gitdir, ok := strings.CutPrefix(line, gitdirPrefix)
	if !ok {
		return "", false
	}
	gitdir = strings.TrimSpace(gitdir)
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(worktreePath, gitdir)
	}
	return gitdir, true
}

// buildIndex resolves every worktree's metadata location and the
// repository's administration directory into an immutable path index.
func buildIndex(repoPath string, worktreePaths []string) *pathIndex {
	idx := &pathIndex{
		headToWorktree:  make(map[string]string),
		indexToWorktree: make(map[string]string),
	}

	adminDir := filepath.Join(repoPath, ".git", "worktrees")
	if info, err := os.Stat(adminDir); err == nil && info.IsDir() {
		idx.adminDir = canonicalize(adminDir)
	}

	for _, worktree := range worktreePaths {
		gitDir, ok := resolveGitDir(worktree)
		if !ok {
			continue
		}

		headPath := canonicalize(filepath.Join(gitDir, "HEAD"))
		idx.headToWorktree[headPath] = worktree

		indexPath := canonicalize(filepath.Join(gitDir, "index"))
		idx.indexToWorktree[indexPath] = worktree

		idx.pollTargets = append(idx.pollTargets, headPath, indexPath)

		canonicalDir := canonicalize(gitDir)
		if _, err := os.Stat(canonicalDir); err == nil {
			idx.watchDirs = append(idx.watchDirs, canonicalDir)
		}
	}

	return idx
}

// empty reports whether there is nothing to watch
func (idx *pathIndex) empty() bool {
	return len(idx.headToWorktree) == 0 && idx.adminDir == ""
}

// lookupHead matches an event path against the HEAD index, canonical
// path first, raw path as fallback for watchers that do not report
// canonical roots.
func (idx *pathIndex) lookupHead(path string) (string, bool) {
	if worktree, ok := idx.headToWorktree[canonicalize(path)]; ok {
		return worktree, true
	}
	worktree, ok := idx.headToWorktree[path]
	return worktree, ok
}

// lookupIndex is the index-file counterpart of lookupHead
func (idx *pathIndex) lookupIndex(path string) (string, bool) {
	if worktree, ok := idx.indexToWorktree[canonicalize(path)]; ok {
		return worktree, true
	}
	worktree, ok := idx.indexToWorktree[path]
	return worktree, ok
}

// underAdminDir reports whether the event path falls inside the
// administration directory, testing both the raw and canonical forms.
func (idx *pathIndex) underAdminDir(path string) bool {
	if idx.adminDir == "" {
		return false
	}
	return underDir(path, idx.adminDir) || underDir(canonicalize(path), idx.adminDir)
}

func underDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
