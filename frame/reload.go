// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"log/slog"
	"path/filepath"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/glsandbox/gpu"
	"github.com/fsnotify/fsnotify"
)

// Reloader watches shader source files and reports when any
// of them change, so that the program can be rebuilt between
// frames. The directories of the files are watched, so that
// editors that replace files on save are handled. Events for
// other files in those directories are ignored.
type Reloader struct {
	// Build builds a new program from the current sources.
	Build func() (*gpu.Program, error)

	watcher *fsnotify.Watcher
	dirs    map[string]bool
	files   map[string]bool
}

// NewReloader returns a new Reloader watching the directories
// of the given source files, rebuilding with build.
func NewReloader(build func() (*gpu.Program, error), files ...string) (*Reloader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Log(err)
	}
	rl := &Reloader{Build: build, watcher: w, dirs: make(map[string]bool), files: make(map[string]bool)}
	for _, f := range files {
		rl.files[absPath(f)] = true
		dir := filepath.Dir(f)
		if rl.dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, errors.Log(err)
		}
		rl.dirs[dir] = true
	}
	return rl, nil
}

// Changed drains the pending file events without blocking and
// returns true if any of them modified a file.
func (rl *Reloader) Changed() bool {
	changed := false
	for {
		select {
		case ev, ok := <-rl.watcher.Events:
			if !ok {
				return changed
			}
			if !rl.files[absPath(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				slog.Debug("frame.Reloader", "event", ev.Op.String(), "file", ev.Name)
				changed = true
			}
		case err, ok := <-rl.watcher.Errors:
			if !ok {
				return changed
			}
			slog.Error("frame.Reloader", "err", err)
		default:
			return changed
		}
	}
}

// Close stops watching.
func (rl *Reloader) Close() error {
	return rl.watcher.Close()
}

func absPath(fn string) string {
	if abs, err := filepath.Abs(fn); err == nil {
		return abs
	}
	return filepath.Clean(fn)
}
