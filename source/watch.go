package source

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/webviewbundle/wvb/bundle"
)

// WatchBuiltin watches the builtin root directory (not its per-bundle
// subdirectories) and, on any write, create, remove or rename there, drops
// every cached descriptor and re-reads the builtin manifest, so a
// re-deployed builtin manifest is picked up without a process restart.
// This is additive relative to the original design (which assumes a
// static builtin root) and does not alter version-resolution semantics;
// it stops when ctx is canceled.
func (s *Source) WatchBuiltin(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("source: new watcher: %w", err)
	}

	if err := w.Add(s.builtinDir); err != nil {
		w.Close()

		return fmt.Errorf("source: watch %s: %w", s.builtinDir, err)
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					s.invalidateAll()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// invalidateAll drops every cached descriptor and forces the builtin
// manifest to be re-read, so a re-deployed manifest.json is picked up
// along with the bundle files it describes.
func (s *Source) invalidateAll() {
	s.mu.Lock()
	s.descriptors = make(map[string]*bundle.Descriptor)
	s.mu.Unlock()

	s.builtinManifest.Reload()
}
