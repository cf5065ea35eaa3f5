package fs

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of filesystem events (a copy of an album
// produces one notification per file) into a single change callback.
const debounceWindow = 2 * time.Second

// Watch observes the inventory roots and invokes onChange when audio files
// appear, disappear or are renamed. It blocks until ctx is cancelled.
func (i *Inventory) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range i.roots {
		if err := watcher.Add(root); err != nil {
			i.logger.Warn("failed to watch root",
				slog.String("root", root),
				slog.Any("error", err))
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !i.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			i.logger.Warn("watcher error", slog.Any("error", err))

		case <-timerC:
			timer = nil
			timerC = nil
			i.logger.Debug("music directory changed, notifying")
			onChange()
		}
	}
}

// relevant reports whether the event concerns an audio file coming or going.
func (i *Inventory) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return audioExts[strings.ToLower(filepath.Ext(event.Name))]
}
