package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch reloads the configuration whenever the file at path is written or
// replaced and passes the result to onChange. It blocks until ctx is done.
// The parent directory is watched so editors that rename over the file are
// still seen. Reloads that fail to parse or validate are logged and skipped.
func Watch(ctx context.Context, path string, onChange func(*Config)) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				log.WithError(err).Warn("[Config] Ignoring invalid config reload")
				continue
			}
			log.Infof("[Config] Reloaded %s", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("[Config] Watcher error")
		}
	}
}

// WatchLogging keeps the logger in step with the file at path.
func WatchLogging(ctx context.Context, path string) error {
	return Watch(ctx, path, func(c *Config) {
		if err := ApplyLogging(c.Log); err != nil {
			log.WithError(err).Warn("[Config] Failed to apply log settings")
		}
	})
}
