package scheduler

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

// DefaultDebounceInterval is the quiet period after the last file event
// before a reload is requested.
const DefaultDebounceInterval = 300 * time.Millisecond

// fileWatcher signals on changed whenever the watched file is written or
// recreated. It watches the parent directory so editors that save through a
// rename are still seen.
type fileWatcher struct {
	path     string
	debounce time.Duration
	changed  chan struct{}
	logger   logger.Logger

	fs     *fsnotify.Watcher
	stopCh chan struct{}

	timerMu sync.Mutex
	timer   *time.Timer
}

// newFileWatcher starts watching path. A nil watcher and an error mean
// fsnotify is unavailable; callers fall back to their ticker.
func newFileWatcher(path string, debounce time.Duration, log logger.Logger) (*fileWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		_ = fs.Close()
		return nil, err
	}

	w := &fileWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		changed:  make(chan struct{}, 1),
		logger:   log,
		fs:       fs,
		stopCh:   make(chan struct{}),
	}
	go w.run(fs.Events, fs.Errors)
	return w, nil
}

func (w *fileWatcher) run(events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("apps file changed", logger.String("path", ev.Name), logger.String("op", ev.Op.String()))
			w.fireDebounced()
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.logger.Warn("apps file watcher error", logger.Error(err))
		}
	}
}

func (w *fileWatcher) fireDebounced() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.changed <- struct{}{}:
		default:
			// a reload is already pending
		}
	})
}

func (w *fileWatcher) close() {
	close(w.stopCh)

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	if err := w.fs.Close(); err != nil {
		w.logger.Warn("failed to close apps file watcher", logger.Error(err))
	}
}
