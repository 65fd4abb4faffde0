package providers

import (
	"context"
	"slices"

	"github.com/samber/do/v2"

	"github.com/librumreader/librum-core/internal/config"
	"github.com/librumreader/librum-core/internal/logger"
	"github.com/librumreader/librum-core/internal/service"
	"github.com/librumreader/librum-core/internal/watcher"
)

// FileWatcherHandle wraps the file watcher with shutdown capability.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher provides the watcher that keeps each book's downloaded
// flag in step with its file.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	bookService := do.MustInvoke[*service.BookService](i)

	w, err := watcher.New(log.Logger, watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	dirs, err := bookService.WatchedDirs(ctx)
	if err != nil {
		cancel()
		_ = w.Stop()
		return nil, err
	}
	if cfg.Library.BooksPath != "" && !slices.Contains(dirs, cfg.Library.BooksPath) {
		dirs = append(dirs, cfg.Library.BooksPath)
	}

	// Directories of books on unplugged drives are skipped, not fatal.
	for _, dir := range dirs {
		if err := w.Watch(dir); err != nil {
			log.Warn("Cannot watch directory", "path", dir, "error", err)
			continue
		}
		log.Debug("Watching directory", "path", dir)
	}

	go w.Run(ctx, func(ctx context.Context, path string, available bool) {
		if err := bookService.MarkAvailability(ctx, path, available); err != nil {
			log.Warn("failed to update book availability",
				"error", err,
				"path", path,
				"available", available,
			)
		}
	})

	log.Info("File watcher started", "directories", len(w.WatchList()))

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
