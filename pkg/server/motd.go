package server

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultMOTD greets clients when no MOTD file exists.
const DefaultMOTD = "Welcome!\n"

// MOTD caches the message-of-the-day file and keeps the cache fresh by
// watching the file for changes.
type MOTD struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	text string

	watcher *fsnotify.Watcher
}

// NewMOTD loads the file and starts watching it. A missing file is not an
// error, clients get the default greeting until it appears.
func NewMOTD(path string, logger *zap.Logger) *MOTD {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MOTD{path: path, logger: logger}
	m.reload()
	if path != "" {
		m.watch()
	}
	return m
}

// Text returns the current message of the day.
func (m *MOTD) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}

// Close stops the file watcher.
func (m *MOTD) Close() {
	if m.watcher != nil {
		m.watcher.Close()
	}
}

func (m *MOTD) reload() {
	text := DefaultMOTD
	if m.path != "" {
		if data, err := os.ReadFile(m.path); err == nil {
			text = string(data)
		}
	}
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// watch registers on the containing directory so the usual editor
// write-rename dance is still seen.
func (m *MOTD) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.Warn("could not watch motd file", zap.Error(err))
		return
	}
	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		m.logger.Warn("could not watch motd file", zap.String("dir", dir), zap.Error(err))
		watcher.Close()
		return
	}
	m.watcher = watcher
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if filepath.Base(event.Name) != filepath.Base(m.path) {
					continue
				}
				m.logger.Info("motd file changed, reloading", zap.String("path", m.path))
				m.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("motd watcher error", zap.Error(err))
			}
		}
	}()
}
