// Package main imports book JSON documents into the library.
//
// Each *.json file in the directory is merged into the book with the same ID,
// or added when the library does not have it yet.
//
// Usage:
//
//	go run ./cmd/import [config flags] <directory>
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/do/v2"

	"github.com/librumreader/librum-core/internal/config"
	"github.com/librumreader/librum-core/internal/di"
	"github.com/librumreader/librum-core/internal/logger"
	"github.com/librumreader/librum-core/internal/service"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: import [config flags] <directory>")
		os.Exit(2)
	}
	dir := args[len(args)-1]

	cfg, err := config.Load(args[:len(args)-1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)

	books, err := di.BootstrapCore(injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)

	summary, err := importDir(context.Background(), books, dir)
	if err != nil {
		log.Error("Import failed", "dir", dir, "error", err)
	}

	log.Info("Import finished",
		"dir", dir,
		"created", summary.created,
		"updated", summary.updated,
		"unchanged", summary.unchanged,
		"failed", summary.failed,
	)

	if shutdownErr := injector.Shutdown(); shutdownErr != nil {
		log.Error("Shutdown error", "error", shutdownErr)
	}
	if err != nil || summary.failed > 0 {
		os.Exit(1)
	}
}

type importSummary struct {
	created, updated, unchanged, failed int
}

// importDir imports every *.json file in dir, in name order. A file that
// fails to import is logged and counted; the rest still run.
func importDir(ctx context.Context, books *service.BookService, dir string) (importSummary, error) {
	var summary importSummary

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return summary, err
	}
	slices.Sort(paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			summary.failed++
			continue
		}

		result, err := books.ImportBook(ctx, data)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			summary.failed++
		case result.Created:
			summary.created++
		case len(result.Changed) > 0:
			summary.updated++
		default:
			summary.unchanged++
		}
	}

	return summary, nil
}
