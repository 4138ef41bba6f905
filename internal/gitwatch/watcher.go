package gitwatch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/logging"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/monitoring"
)

const defaultPollInterval = 500 * time.Millisecond

// Watcher owns the registry of active repository watch sessions
type Watcher struct {
	mu    sync.Mutex
	repos map[string]*repoWatch

	sink         events.Sink
	log          *logging.Logger
	metrics      *monitoring.Metrics
	pollInterval time.Duration
}

// NewWatcher creates a watcher registry publishing to the given sink
func NewWatcher(sink events.Sink, log *logging.Logger) *Watcher {
	return &Watcher{
		repos:        make(map[string]*repoWatch),
		sink:         sink,
		log:          log,
		pollInterval: defaultPollInterval,
	}
}

// WithMetrics attaches a metrics collector
func (w *Watcher) WithMetrics(metrics *monitoring.Metrics) *Watcher {
	w.metrics = metrics
	return w
}

// WithPollInterval sets the mtime fallback poll interval
func (w *Watcher) WithPollInterval(interval time.Duration) *Watcher {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// Start begins watching a repository's worktrees, replacing any
// existing watch for the same repository path. The predecessor is fully
// stopped before the new session is installed, so its events never
// interleave with the replacement's. Finding nothing to watch is a
// successful no-op.
func (w *Watcher) Start(repoPath string, worktreePaths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.repos[repoPath]; ok {
		delete(w.repos, repoPath)
		old.stop()
		if w.metrics != nil {
			w.metrics.WatchersActive.Dec()
		}
	}

	idx := buildIndex(repoPath, worktreePaths)
	if idx.empty() {
		w.log.Debug("nothing to watch", zap.String("repo", repoPath))
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to install watcher: %w", err)
	}

	for _, dir := range idx.watchDirs {
		if err := fsw.Add(dir); err != nil {
			w.log.Warn("failed to watch metadata dir",
				zap.String("dir", dir), zap.Error(err))
		}
	}

	if idx.adminDir != "" {
		if err := fsw.Add(idx.adminDir); err != nil {
			w.log.Warn("failed to watch admin dir",
				zap.String("dir", idx.adminDir), zap.Error(err))
		}
		// The watch API is non-recursive; cover the per-worktree
		// subdirectories that already exist. New ones are added as
		// their create events arrive.
		if entries, err := os.ReadDir(idx.adminDir); err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					_ = fsw.Add(idx.adminDir + string(os.PathSeparator) + entry.Name())
				}
			}
		}
	}

	rw := &repoWatch{
		repoPath: repoPath,
		fsw:      fsw,
		idx:      idx,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		mtimes:   make(map[string]time.Time),
	}
	for _, target := range idx.pollTargets {
		if info, err := os.Stat(target); err == nil {
			rw.mtimes[target] = info.ModTime()
		}
	}

	w.repos[repoPath] = rw
	if w.metrics != nil {
		w.metrics.WatchersActive.Inc()
	}

	w.log.Info("watching repository",
		zap.String("repo", repoPath),
		zap.Int("worktrees", len(idx.headToWorktree)),
	)

	go rw.run(w.sink, w.log, w.pollInterval)

	return nil
}

// Stop removes and disposes the watch for one repository. Stopping an
// unwatched repository is a no-op.
func (w *Watcher) Stop(repoPath string) {
	w.mu.Lock()
	rw, ok := w.repos[repoPath]
	if ok {
		delete(w.repos, repoPath)
	}
	w.mu.Unlock()

	if !ok {
		return
	}
	rw.stop()
	if w.metrics != nil {
		w.metrics.WatchersActive.Dec()
	}
	w.log.Info("stopped watching repository", zap.String("repo", repoPath))
}

// StopAll removes and disposes every active watch
func (w *Watcher) StopAll() {
	w.mu.Lock()
	watches := make([]*repoWatch, 0, len(w.repos))
	for repoPath, rw := range w.repos {
		delete(w.repos, repoPath)
		watches = append(watches, rw)
	}
	w.mu.Unlock()

	for _, rw := range watches {
		rw.stop()
		if w.metrics != nil {
			w.metrics.WatchersActive.Dec()
		}
	}
}

// Count returns the number of active watch sessions
func (w *Watcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.repos)
}

// repoWatch is one active watch session. Its index is immutable after
// construction; mtimes is touched only by the run goroutine.
type repoWatch struct {
	repoPath string
	fsw      *fsnotify.Watcher
	idx      *pathIndex
	done     chan struct{}
	stopped  chan struct{}
	mtimes   map[string]time.Time
}

// stop shuts the session down and waits for the dispatch goroutine to
// exit, guaranteeing no events are published afterwards.
func (rw *repoWatch) stop() {
	close(rw.done)
	rw.fsw.Close()
	<-rw.stopped
}

func (rw *repoWatch) run(sink events.Sink, log *logging.Logger, pollInterval time.Duration) {
	defer close(rw.stopped)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-rw.fsw.Events:
			if !ok {
				return
			}
			rw.dispatch(sink, ev.Name, ev.Op)
			rw.trackNewAdminDir(ev)
		case err, ok := <-rw.fsw.Errors:
			if !ok {
				return
			}
			// Never propagated upward; a missed event means stale state
			// until the next poll cycle.
			log.Debug("watch error", zap.String("repo", rw.repoPath), zap.Error(err))
		case <-ticker.C:
			rw.pollOnce(sink)
		case <-rw.done:
			return
		}
	}
}

func (rw *repoWatch) dispatch(sink events.Sink, name string, op fsnotify.Op) {
	for _, ev := range rw.idx.classify(rw.repoPath, name, op) {
		sink.Publish(ev)
	}
	rw.markSeen(name)
}

// trackNewAdminDir extends the low-level watch onto a freshly created
// per-worktree subdirectory of the administration directory.
func (rw *repoWatch) trackNewAdminDir(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) || !rw.idx.underAdminDir(ev.Name) {
		return
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		_ = rw.fsw.Add(ev.Name)
	}
}

// pollOnce is the fallback for filesystems that do not surface the
// rename/replace rewrites git uses for HEAD and index. A target whose
// change was already delivered natively has an up-to-date mtime
// snapshot and is skipped.
func (rw *repoWatch) pollOnce(sink events.Sink) {
	for _, target := range rw.idx.pollTargets {
		info, err := os.Stat(target)
		if err != nil {
			continue
		}
		prev, known := rw.mtimes[target]
		if known && info.ModTime().Equal(prev) {
			continue
		}
		rw.mtimes[target] = info.ModTime()
		if known {
			rw.dispatch(sink, target, fsnotify.Write)
		}
	}
}

// markSeen refreshes the mtime snapshot for poll targets after a native
// event so the poller does not re-report the same change.
func (rw *repoWatch) markSeen(name string) {
	canonical := canonicalize(name)
	for _, target := range rw.idx.pollTargets {
		if target == name || target == canonical {
			if info, err := os.Stat(target); err == nil {
				rw.mtimes[target] = info.ModTime()
			}
			return
		}
	}
}
