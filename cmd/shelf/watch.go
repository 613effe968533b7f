// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// watchDebounce collapses the burst of events an editor produces for one save.
const watchDebounce = 250 * time.Millisecond

// watchImport re-imports path after every change until ctx is done.
//
// # Description
//
// The parent directory is watched rather than the file so that editors
// that replace the file on save keep triggering imports. One goroutine
// filters events for path into a single-slot signal channel; a second
// waits for the burst to settle and imports. Rows already in the catalog
// are skipped as duplicates, so only new rows are added. Import errors are
// reported and the watch continues.
//
// # Inputs
//
//   - ready: called once the watch is registered; may be nil
//
// # Outputs
//
//   - error: nil after ctx is cancelled, or a watcher setup error
func (c *cli) watchImport(ctx context.Context, path string, ready func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	c.log.Info("watching for changes", "path", abs)
	if ready != nil {
		ready()
	}

	changed := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				c.log.Warn("watch error", "path", abs, "error", werr)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changed:
			}
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(watchDebounce):
			}
			select {
			case <-changed:
			default:
			}
			if err := c.importOnce(gctx, path); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				c.log.Warn("re-import failed", "path", abs, "error", err)
				c.printer.Warning(err.Error())
			}
		}
	})

	return g.Wait()
}
