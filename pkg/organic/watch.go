package organic

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces a burst of filesystem events (e.g. a large
// directory being copied in) into a single notification.
const debounceWindow = 2 * time.Second

// Watch is an ambient enrichment beyond the poll-based organic workflow:
// it watches root for new top-level entries and calls onNew once the
// debounce window has passed without further activity, stopping when ctx
// is canceled. The scheduled-pipeline workflow remains the source of
// truth; Watch only shortens the latency between a drop and a run.
func Watch(ctx context.Context, root string, onNew func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if shouldIgnore(root, ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(debounceWindow, onNew)
			} else {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

func shouldIgnore(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
	return first == stateDirName || strings.HasPrefix(first, ".")
}
