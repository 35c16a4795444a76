// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/carekg/pkg/types"
)

// DefaultDebounce is the quiet period Watch waits for after the last change
// before re-running extraction.
const DefaultDebounce = 2 * time.Second

// Watch runs ExtractAll once, then again whenever a .txt file under
// pagesDir/text/ is written or created, until ctx is cancelled. Bursts of
// events within debounce collapse into one run. Batch errors are reported
// to w and do not stop the watch.
func Watch(ctx context.Context, cfg types.ExtractionConfig, debounce time.Duration, w io.Writer) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	dir := filepath.Join(cfg.PagesDir, textDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating text directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	run := func() {
		if _, err := ExtractAll(ctx, cfg, w); err != nil && ctx.Err() == nil {
			fmt.Fprintf(w, "watch extract error: %v\n", err)
		}
	}

	fmt.Fprintf(w, "watching %s (debounce: %s)\n", dir, debounce)
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "watch error: %v\n", err)
		case <-timer.C:
			run()
		}
	}
}
