package gitwatch

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRepo lays out a main worktree with a plain .git directory and
// optional linked worktrees whose .git files point into the shared
// administrative store.
func writeRepo(t *testing.T, linked ...string) (repoPath string, worktrees []string) {
	t.Helper()
	repoPath = t.TempDir()

	gitDir := filepath.Join(repoPath, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "index"), []byte{0x44, 0x49, 0x52, 0x43}, 0o644))

	worktrees = []string{repoPath}

	for _, name := range linked {
		adminDir := filepath.Join(gitDir, "worktrees", name)
		require.NoError(t, os.MkdirAll(adminDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(adminDir, "HEAD"), []byte("ref: refs/heads/"+name+"\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(adminDir, "index"), []byte{0x44, 0x49, 0x52, 0x43}, 0o644))

		wtPath := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.MkdirAll(wtPath, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(wtPath, ".git"), []byte("gitdir: "+adminDir+"\n"), 0o644))
		worktrees = append(worktrees, wtPath)
	}

	return repoPath, worktrees
}

func TestResolveGitDirPlainDirectory(t *testing.T) {
	repoPath, _ := writeRepo(t)

	gitDir, ok := resolveGitDir(repoPath)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(repoPath, ".git"), gitDir)
}

func TestResolveGitDirIndirectionFile(t *testing.T) {
	repoPath, worktrees := writeRepo(t, "feature")
	linked := worktrees[1]

	gitDir, ok := resolveGitDir(linked)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(repoPath, ".git", "worktrees", "feature"), gitDir)
}

func TestResolveGitDirRelativeIndirection(t *testing.T) {
	wtPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(wtPath, "meta"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(wtPath, ".git"), []byte("gitdir: meta\n"), 0o644))

	gitDir, ok := resolveGitDir(wtPath)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(wtPath, "meta"), gitDir)
}

func TestResolveGitDirMissing(t *testing.T) {
	_, ok := resolveGitDir(t.TempDir())
	assert.False(t, ok)
}

func TestResolveGitDirMalformedIndirection(t *testing.T) {
	wtPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wtPath, ".git"), []byte("not an indirection\n"), 0o644))

	_, ok := resolveGitDir(wtPath)
	assert.False(t, ok)
}

func TestBuildIndex(t *testing.T) {
	repoPath, worktrees := writeRepo(t, "feature")

	idx := buildIndex(repoPath, worktrees)
	require.False(t, idx.empty())

	assert.Len(t, idx.headToWorktree, 2)
	assert.Len(t, idx.indexToWorktree, 2)
	assert.Len(t, idx.watchDirs, 2)
	assert.Len(t, idx.pollTargets, 4)
	assert.NotEmpty(t, idx.adminDir)

	mainHead := canonicalize(filepath.Join(repoPath, ".git", "HEAD"))
	assert.Equal(t, repoPath, idx.headToWorktree[mainHead])

	linkedHead := canonicalize(filepath.Join(repoPath, ".git", "worktrees", "feature", "HEAD"))
	assert.Equal(t, worktrees[1], idx.headToWorktree[linkedHead])
}

func TestBuildIndexNoAdminDirWithoutLinkedWorktrees(t *testing.T) {
	repoPath, worktrees := writeRepo(t)

	idx := buildIndex(repoPath, worktrees)
	assert.Empty(t, idx.adminDir)
	assert.Len(t, idx.headToWorktree, 1)
}

func TestBuildIndexEmpty(t *testing.T) {
	idx := buildIndex(t.TempDir(), []string{t.TempDir()})
	assert.True(t, idx.empty())
}

func TestBuildIndexSkipsUnresolvableWorktrees(t *testing.T) {
	repoPath, worktrees := writeRepo(t)
	worktrees = append(worktrees, filepath.Join(t.TempDir(), "gone"))

	idx := buildIndex(repoPath, worktrees)
	assert.Len(t, idx.headToWorktree, 1)
}

func TestCanonicalizeResolvesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink semantics differ on windows")
	}

	real := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(real, link))

	resolved := canonicalize(link)
	// Also canonicalize the real path: TempDir itself may live behind a
	// symlink (e.g. /tmp on macOS).
	assert.Equal(t, canonicalize(real), resolved)
}

func TestLookupRawPathFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink semantics differ on windows")
	}

	// Simulate a watcher reporting a non-canonical root: the index is
	// keyed by the raw symlinked spelling, and the canonical form of the
	// event path misses.
	real := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(real, "HEAD"), []byte("ref\n"), 0o644))
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(real, link))

	rawHead := filepath.Join(link, "HEAD")
	idx := &pathIndex{
		headToWorktree:  map[string]string{rawHead: "/wt"},
		indexToWorktree: map[string]string{},
	}

	worktree, ok := idx.lookupHead(rawHead)
	require.True(t, ok)
	assert.Equal(t, "/wt", worktree)
}
