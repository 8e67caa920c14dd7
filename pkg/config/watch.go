package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/maidnode/internal/logger"
)

// Watcher re-runs Load on every write to the config file it was created
// for and delivers the result to OnChange. Failed reloads (a transient
// truncated write mid-save, a validation error) are logged and the
// previous configuration stays in effect.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	OnChange func(*Config)
	done     chan struct{}
}

// WatchFile starts watching configPath for changes and returns a Watcher.
// Call Stop when done.
func WatchFile(configPath string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fw.Add(configPath); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	w := &Watcher{path: configPath, fw: fw, OnChange: onChange, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				logger.Warn("config: reload failed, keeping previous configuration", "path", w.path, "error", err.Error())
				continue
			}
			logger.Info("config: reloaded", "path", w.path)
			if w.OnChange != nil {
				w.OnChange(cfg)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watcher error", "error", err.Error())
		case <-w.done:
			return
		}
	}
}

// Stop terminates the watcher goroutine and releases the underlying
// filesystem watch.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fw.Close()
}
