package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the roster whenever the seeded students or learning
// objects file is rewritten on disk. It blocks until ctx is cancelled.
// Editors and atomic writers replace files via rename, so create events
// are treated the same as writes.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	// Debounce: a rename-based rewrite fires several events back to back.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if name != FileStudents && name != FileLearningObjects {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("roster watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			if err := s.ReloadRoster(); err != nil {
				s.logger.Error("roster reload failed", zap.Error(err))
			}
		}
	}
}
