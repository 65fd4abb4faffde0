// Package service provides the business logic for the library: adding,
// syncing and tracking books, and managing their tags.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
	"github.com/librumreader/librum-core/internal/media/covers"
	"github.com/librumreader/librum-core/internal/search"
	"github.com/librumreader/librum-core/internal/store"
	"github.com/librumreader/librum-core/internal/validation"
)

// BookService orchestrates book operations.
//
// Books are single-owner values; the service serialises every
// read-modify-write on them with one mutex.
type BookService struct {
	store     store.Store
	indexer   store.SearchIndexer
	index     *search.SearchIndex // nil when search is disabled
	covers    *covers.Processor
	validator *validation.Validator
	logger    *slog.Logger

	mu  sync.Mutex
	now func() time.Time // millisecond precision, matching the JSON document
}

// NewBookService creates a new book service. index may be nil, in which case
// search is unavailable and index updates are skipped.
func NewBookService(
	st store.Store,
	index *search.SearchIndex,
	coverProcessor *covers.Processor,
	validator *validation.Validator,
	logger *slog.Logger,
) *BookService {
	var indexer store.SearchIndexer = store.NewNoopSearchIndexer()
	if index != nil {
		indexer = index
	}
	return &BookService{
		store:     st,
		indexer:   indexer,
		index:     index,
		covers:    coverProcessor,
		validator: validator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// AddBook adds a new book backed by the file at req.FilePath.
// Returns ALREADY_EXISTS if a book with that path is already in the library.
func (s *BookService) AddBook(ctx context.Context, req AddBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Clean(req.FilePath)
	if _, err := s.store.GetBookByPath(ctx, path); err == nil {
		return nil, errors.AlreadyExistsf("a book at %s is already in the library", path)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	metadata := req.metadata()
	metadata.AddedToLibrary = s.now()

	book := domain.NewBook(path, metadata, 0, "")
	book.Downloaded = fileExists(path)
	book.LastModified = metadata.AddedToLibrary

	if err := s.save(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("book added",
		"book_id", book.ID().String(),
		"title", book.Title,
		"path", path,
	)
	return book, nil
}

// GetBook returns a book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID uuid.UUID) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// ListBooks returns every book sorted by title using locale-aware collation,
// with ties broken by author then ID.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	c := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(books, func(i, j int) bool {
		if cmp := c.CompareString(books[i].Title, books[j].Title); cmp != 0 {
			return cmp < 0
		}
		if cmp := c.CompareString(books[i].Authors, books[j].Authors); cmp != 0 {
			return cmp < 0
		}
		return books[i].ID().String() < books[j].ID().String()
	})

	return books, nil
}

// DeleteBook removes a book from the library. The backing file is untouched.
func (s *BookService) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	if err := s.indexer.DeleteBook(bookID); err != nil {
		s.logger.Warn("failed to remove book from search index", "book_id", bookID.String(), "error", err)
	}

	s.logger.Info("book deleted", "book_id", bookID.String())
	return nil
}

// SyncResult reports what SyncBook did.
type SyncResult struct {
	Book    *domain.Book
	Created bool
	Changed []string // field names as reported by domain.Book.Diff
}

// SyncBook merges incoming into the stored book with the same ID, or inserts
// it if the library does not have it yet.
//
// The merge follows domain.Book.Update: metadata, file path and tags come
// from incoming while the local reading position and downloaded flag are
// kept. LastModified is set to the sync time. Nothing is written when the
// two books differ in nothing but LastModified.
func (s *BookService) SyncBook(ctx context.Context, incoming *domain.Book) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.syncLocked(ctx, incoming)
}

func (s *BookService) syncLocked(ctx context.Context, incoming *domain.Book) (*SyncResult, error) {
	existing, err := s.store.GetBook(ctx, incoming.ID())
	if errors.Is(err, errors.ErrNotFound) {
		incoming.Downloaded = fileExists(incoming.FilePath)
		if err := s.save(ctx, incoming); err != nil {
			return nil, err
		}
		s.logger.Info("book inserted by sync", "book_id", incoming.ID().String())
		return &SyncResult{Book: incoming, Created: true}, nil
	}
	if err != nil {
		return nil, err
	}

	// LastModified is stamped locally on every change, so an incoming stamp
	// alone is not a change.
	changed := slices.DeleteFunc(existing.Diff(incoming), func(field string) bool {
		return field == domain.FieldLastModified
	})
	if len(changed) == 0 {
		return &SyncResult{Book: existing}, nil
	}

	pathChanged := existing.FilePath != incoming.FilePath
	existing.Update(incoming)
	existing.UpdateLastModified()
	if pathChanged {
		existing.Downloaded = fileExists(existing.FilePath)
	}

	if err := s.save(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Info("book synced",
		"book_id", existing.ID().String(),
		"changed", changed,
	)
	return &SyncResult{Book: existing, Changed: changed}, nil
}

// SetCurrentPage records the reading position. The page is zero-based and
// must be below the book's page count. LastOpened and LastModified are
// stamped with the current time.
func (s *BookService) SetCurrentPage(ctx context.Context, bookID uuid.UUID, page int) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.PageCount <= 0 {
		return nil, errors.Validationf("book %s has no pages", bookID)
	}
	if err := s.validator.Var("page", page, fmt.Sprintf("gte=0,lt=%d", book.PageCount)); err != nil {
		return nil, err
	}

	book.CurrentPage = page
	book.LastOpened = s.now()
	book.LastModified = book.LastOpened

	if err := s.save(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Debug("reading progress updated",
		"book_id", bookID.String(),
		"page", page,
		"percentage", book.PercentageRead(),
	)
	return book, nil
}

// SetCover decodes, scales and stores a new cover for the book and returns
// the cover's BlurHash.
func (s *BookService) SetCover(ctx context.Context, bookID uuid.UUID, data []byte) (string, error) {
	result, err := s.covers.Process(data)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeValidation, "invalid cover image")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return "", err
	}

	book.SetCover(result.Image)
	book.UpdateLastModified()

	if err := s.save(ctx, book); err != nil {
		return "", err
	}
	if err := s.store.SetCoverBlurHash(ctx, bookID, result.BlurHash); err != nil {
		return "", err
	}

	s.logger.Info("cover updated",
		"book_id", bookID.String(),
		"format", result.Format,
		"width", result.Width,
		"height", result.Height,
	)
	return result.BlurHash, nil
}

// ClearCover removes the book's cover.
func (s *BookService) ClearCover(ctx context.Context, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book.Cover() == nil {
		return nil
	}

	book.SetCover(nil)
	book.UpdateLastModified()

	if err := s.save(ctx, book); err != nil {
		return err
	}
	return s.store.SetCoverBlurHash(ctx, bookID, "")
}

// CoverBlurHash returns the placeholder hash of the book's cover, or "".
func (s *BookService) CoverBlurHash(ctx context.Context, bookID uuid.UUID) (string, error) {
	return s.store.CoverBlurHash(ctx, bookID)
}

// ExportBook returns the book as its JSON document.
func (s *BookService) ExportBook(ctx context.Context, bookID uuid.UUID) ([]byte, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return book.ToJSON()
}

// ImportBook reads a book JSON document and syncs it into the library.
// A document that is not a JSON object or names no file is rejected with a
// VALIDATION error.
func (s *BookService) ImportBook(ctx context.Context, data []byte) (*SyncResult, error) {
	book, err := domain.FromJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid book document")
	}
	if book.FilePath == "" {
		return nil, errors.ValidationWithDetails("invalid book document", map[string]string{
			"filePath": "is required",
		})
	}
	book.FilePath = filepath.Clean(book.FilePath)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.syncLocked(ctx, book)
}

// Search runs a full-text query over the library.
func (s *BookService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, errors.Conflictf("search is disabled")
	}
	return s.index.Search(ctx, params)
}

// ReindexAll rebuilds the search index from the store.
func (s *BookService) ReindexAll(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	return s.index.Rebuild(books)
}

// MarkAvailability sets the downloaded flag of the book backed by path.
// Paths that belong to no book are ignored.
func (s *BookService) MarkAvailability(ctx context.Context, path string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.GetBookByPath(ctx, filepath.Clean(path))
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if book.Downloaded == available {
		return nil
	}
	book.Downloaded = available

	if err := s.store.SaveBook(ctx, book); err != nil {
		return fmt.Errorf("save book: %w", err)
	}

	s.logger.Info("book availability changed",
		"book_id", book.ID().String(),
		"path", book.FilePath,
		"downloaded", available,
	)
	return nil
}

// WatchedDirs returns the sorted, de-duplicated directories holding the
// library's books.
func (s *BookService) WatchedDirs(ctx context.Context) ([]string, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	dirs := make([]string, 0, len(books))
	for _, b := range books {
		if b.FilePath == "" {
			continue
		}
		dirs = append(dirs, filepath.Dir(b.FilePath))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}

// save persists the book and updates the search index. Index failures are
// logged; the store is the source of truth and ReindexAll repairs the index.
// Callers hold s.mu.
func (s *BookService) save(ctx context.Context, book *domain.Book) error {
	if err := s.store.SaveBook(ctx, book); err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	if err := s.indexer.IndexBook(book); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID().String(), "error", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
