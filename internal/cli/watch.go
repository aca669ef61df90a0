package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/mindgraph/pkg/cache"
)

// watchDebounce collapses the burst of events an editor emits on save.
const watchDebounce = 150 * time.Millisecond

// watchInputs calls render whenever the content of mindmap.json or
// logic.json in dir changes, until ctx is done. Rendering into dir itself
// rewrites mindmap.json; content that is unchanged since the last render
// is ignored. A failed render is reported and watching goes on.
func (c *CLI) watchInputs(ctx context.Context, dir string, render func(context.Context) error) error {
	logger := loggerFromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// The directory, not the files: a rename-on-save would drop a file watch.
	if err := w.Add(dir); err != nil {
		return err
	}
	printInfo("Watching %s for changes (ctrl+c to stop)", StyleHighlight.Render(dir))

	var (
		timer   *time.Timer
		pending <-chan time.Time
		last    = inputDigest(dir)
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isWatchedInput(ev) {
				continue
			}
			logger.Debug("input changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-pending:
			pending = nil
			if inputDigest(dir) == last {
				continue
			}
			if err := render(ctx); err != nil {
				printWarning("Render failed: %v", err)
			}
			last = inputDigest(dir)
		}
	}
}

func isWatchedInput(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Base(ev.Name) {
	case mindMapJSON, logicJSON:
		return true
	}
	return false
}

// inputDigest fingerprints the watched inputs; missing files count as empty.
func inputDigest(dir string) string {
	var sum string
	for _, name := range []string{mindMapJSON, logicJSON} {
		data, _ := os.ReadFile(filepath.Join(dir, name))
		sum += cache.Hash(data)
	}
	return sum
}
