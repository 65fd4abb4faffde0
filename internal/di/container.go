// Package di provides dependency injection configuration for the Librum library service.
package di

import (
	"github.com/samber/do/v2"

	"github.com/librumreader/librum-core/internal/api"
	"github.com/librumreader/librum-core/internal/config"
	"github.com/librumreader/librum-core/internal/di/providers"
	"github.com/librumreader/librum-core/internal/logger"
	"github.com/librumreader/librum-core/internal/media/covers"
	"github.com/librumreader/librum-core/internal/service"
	"github.com/librumreader/librum-core/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideCoverProcessor)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideSettingsService)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services, starting the watcher and HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := BootstrapCore(injector); err != nil {
		return err
	}

	if _, err := do.Invoke[*providers.FileWatcherHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*api.Server](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}

// BootstrapCore initializes storage and the business services without
// starting any background workers. Used by the command-line tools.
func BootstrapCore(injector *do.RootScope) (*service.BookService, error) {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return nil, err
	}
	_ = do.MustInvoke[*validation.Validator](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return nil, err
	}
	_ = do.MustInvoke[*covers.Processor](injector)
	_ = do.MustInvoke[*service.TagService](injector)

	return do.Invoke[*service.BookService](injector)
}
