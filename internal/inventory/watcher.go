package inventory

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchLedger logs writes to the ledger file made outside the store. The
// table has no cross-process locking, so an external editor racing a
// scheduled pass loses to the later full-table write; the log line is the
// only trace of that. Blocks until ctx is cancelled.
func WatchLedger(ctx context.Context, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		// The ledger may not exist until the first intake; nothing to watch.
		logger.Debug("ledger watch skipped", zap.String("path", path), zap.Error(err))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Info("ledger modified on disk; concurrent edits follow last-write-wins",
					zap.String("path", event.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("ledger watch error", zap.Error(err))
		}
	}
}
