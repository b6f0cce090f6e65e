package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fortio.org/log"
	"github.com/fsnotify/fsnotify"
)

// debounce is how long to wait for rapid saves to settle.
const debounce = 100 * time.Millisecond

// watchFile runs filename, then runs it again on a fresh environment every
// time it is written, until ctx is cancelled. Program errors are printed and
// watching continues.
func watchFile(ctx context.Context, filename string, stdout, stderr io.Writer) error {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", filename, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsWatcher.Close()

	// Editors often replace the file rather than write it, so watch the
	// directory and filter by name.
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watching %s: %w", filename, err)
	}

	runOnce := func() {
		content, err := os.ReadFile(absPath)
		if err != nil {
			log.Errf("watch: reading %s: %v", filename, err)
			return
		}
		runSource(filename, string(content), stdout, stderr)
	}

	runOnce()
	fmt.Fprintf(stderr, "[i] watching %s (Ctrl+C to stop)\n", filename)

	var lastChange time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastChange) < debounce {
				continue
			}
			lastChange = time.Now()

			// Let the writer finish before reading.
			select {
			case <-time.After(debounce):
			case <-ctx.Done():
				return nil
			}
			fmt.Fprintf(stderr, "[i] %s changed, rerunning\n", filename)
			runOnce()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Errf("watch: %v", err)
		}
	}
}
