package gitwatch

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/shared/types"
)

// classify turns one raw filesystem event into zero or more domain
// events. The HEAD, index and administration-directory tests are
// independent, so a single raw event can yield several classified
// events. Renames count as modifications: git rewrites HEAD and index
// by writing a temp file and renaming it into place.
func (idx *pathIndex) classify(repoPath, name string, op fsnotify.Op) []events.Event {
	var out []events.Event

	modified := op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Rename)
	removed := op.Has(fsnotify.Remove)

	if modified {
		switch filepath.Base(name) {
		case "HEAD":
			if worktree, ok := idx.lookupHead(name); ok {
				out = append(out, events.Event{
					Type: events.GitHeadChanged,
					Payload: types.GitHeadChange{
						RepoPath:     repoPath,
						WorktreePath: worktree,
						ChangeType:   types.HeadChangeBranch,
					},
				})
			}
		case "index":
			if worktree, ok := idx.lookupIndex(name); ok {
				out = append(out, events.Event{
					Type: events.GitIndexChanged,
					Payload: types.GitIndexChange{
						RepoPath:     repoPath,
						WorktreePath: worktree,
					},
				})
			}
		}
	}

	if idx.underAdminDir(name) {
		if modified {
			out = append(out, events.Event{
				Type: events.WorktreeChanged,
				Payload: types.WorktreeChange{
					RepoPath:   repoPath,
					ChangeType: types.WorktreeAdded,
				},
			})
		}
		if removed {
			out = append(out, events.Event{
				Type: events.WorktreeChanged,
				Payload: types.WorktreeChange{
					RepoPath:   repoPath,
					ChangeType: types.WorktreeRemoved,
				},
			})
		}
	}

	return out
}
