package providers

import (
	"github.com/samber/do/v2"

	"github.com/librumreader/librum-core/internal/config"
	"github.com/librumreader/librum-core/internal/logger"
	"github.com/librumreader/librum-core/internal/media/covers"
	"github.com/librumreader/librum-core/internal/service"
	"github.com/librumreader/librum-core/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideCoverProcessor provides the cover image processor.
func ProvideCoverProcessor(i do.Injector) (*covers.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return covers.NewProcessor(cfg.Covers.MaxWidth, cfg.Covers.MaxHeight), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	coverProcessor := do.MustInvoke[*covers.Processor](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(
		storeHandle.Store,
		indexHandle.SearchIndex,
		coverProcessor,
		validator,
		log.Logger,
	), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	bookService := do.MustInvoke[*service.BookService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(bookService, storeHandle.Store, validator, log.Logger), nil
}

// ProvideSettingsService provides the user settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, validator, log.Logger), nil
}
