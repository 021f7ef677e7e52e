package monitor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called for every filesystem event on a watched lease file
type ChangeFunc func(path string, op fsnotify.Op)

// Monitor watches the candidate lease files for changes. It never reads or
// caches lease data; listing always goes back to the file.
type Monitor struct {
	paths    map[string]string // absolute path -> configured path
	onChange ChangeFunc
	log      *zap.SugaredLogger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a monitor for the given lease file candidates
func New(paths []string, onChange ChangeFunc, log *zap.SugaredLogger) *Monitor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Monitor{
		paths:    make(map[string]string, len(paths)),
		onChange: onChange,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		m.paths[abs] = p
	}
	return m
}

// Start begins watching. Directories are watched rather than the files
// themselves because dnsmasq replaces the lease file on every update.
func (m *Monitor) Start() error {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	go m.watchFiles()

	watched := 0
	dirs := make(map[string]bool)
	for abs := range m.paths {
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true

		if _, err := os.Stat(dir); err != nil {
			m.log.Debugw("Not watching missing lease directory", "dir", dir)
			continue
		}
		if err := m.watcher.Add(dir); err != nil {
			m.log.Warnw("Failed to watch lease directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}

	m.log.Infof("Watching %d lease directories", watched)
	return nil
}

func (m *Monitor) watchFiles() {
	defer close(m.doneCh)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warnw("File watcher error", "error", err)

		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) handleEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	path, ok := m.paths[abs]
	if !ok {
		return
	}

	m.log.Infow("Lease file changed", "path", path, "op", event.Op.String())
	if m.onChange != nil {
		m.onChange(path, event.Op)
	}
}

// Stop stops watching and waits for the event loop to exit
func (m *Monitor) Stop() {
	if m.watcher == nil {
		return
	}
	close(m.stopCh)
	m.watcher.Close()
	<-m.doneCh
}
