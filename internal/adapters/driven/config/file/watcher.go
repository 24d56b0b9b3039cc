package file

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/7and1/difyrun/internal/logger"
)

// debounceDelay coalesces the burst of events an editor save produces.
const debounceDelay = 500 * time.Millisecond

// SourcesWatcher watches the sources file and invokes a callback after
// it changes on disk.
type SourcesWatcher struct {
	path     string
	onChange func()
	watcher  *fsnotify.Watcher
}

// NewSourcesWatcher creates a watcher for the given sources file.
// onChange runs after every debounced change.
func NewSourcesWatcher(path string, onChange func()) (*SourcesWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace the file on
	// save, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &SourcesWatcher{
		path:     absPath,
		onChange: onChange,
		watcher:  watcher,
	}, nil
}

// Run processes watch events until the context ends.
func (w *SourcesWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	filename := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				logger.Info("sources file changed, reloading")
				w.onChange()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("sources watcher: %v", err)
		}
	}
}
