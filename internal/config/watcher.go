package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchSettings blocks until ctx is cancelled, sending SignalSettings on
// changed whenever the settings file at path is written, created or replaced.
//
// The parent directory is watched rather than the file itself because most
// editors (and SaveSettings) replace the file through a rename, which drops a
// watch placed on the old inode. A signal is sent once the file has been
// quiet for SettingsDebounce, so a multi-step save is reloaded in its final
// state. A full channel never blocks the watcher.
func WatchSettings(ctx context.Context, path string, changed chan<- string) error {
	if path == "" {
		return fmt.Errorf("%s: %s", ErrWatcher, ErrSettingsPathEmpty)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", ErrWatcher, err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("%s: %w", ErrWatcher, err)
	}

	log := slog.With(LogKeyComponent, CompSettings, LogKeyFile, target)

	debounce := time.NewTimer(SettingsDebounce)
	debounce.Stop()
	defer debounce.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-pending:
			pending = nil
			select {
			case changed <- SignalSettings:
			default:
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug(MsgWatcherEvent, LogKeyOp, event.Op.String())

			debounce.Reset(SettingsDebounce)
			pending = debounce.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(MsgWatcherError, LogKeyError, err)
		}
	}
}
