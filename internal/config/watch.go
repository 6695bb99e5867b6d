package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/boared/pkg/logger"
)

// Watch reloads the file at path on every write and passes the new Config
// to onChange. A failed reload is logged and the previous config stays
// active. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log := logger.Get().Named("config")
	log.Info(ctx, "watching for changes", logger.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save by rename, which shows up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(ctx, path)
			if err != nil {
				log.Error(ctx, "reload failed, keeping previous config",
					logger.String("path", path), logger.Error(err))
				continue
			}

			log.Info(ctx, "reloaded", logger.String("path", path))
			onChange(cfg)

			// An atomic save replaces the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}
