// Package store defines the persistence interface for the library.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
)

// Store defines the interface for all persistence operations.
// Lookups of missing records return a NOT_FOUND error from internal/errors.
type Store interface {
	// Lifecycle
	Close() error

	// Books
	SaveBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	GetBookByPath(ctx context.Context, path string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	BookIDsWithTag(ctx context.Context, tagID uuid.UUID) ([]uuid.UUID, error)
	SetCoverBlurHash(ctx context.Context, bookID uuid.UUID, hash string) error
	CoverBlurHash(ctx context.Context, bookID uuid.UUID) (string, error)

	// Tags
	CreateTag(ctx context.Context, tag domain.Tag) (*TagRecord, error)
	GetTag(ctx context.Context, id uuid.UUID) (*TagRecord, error)
	GetTagBySlug(ctx context.Context, slug string) (*TagRecord, error)
	ListTags(ctx context.Context) ([]*TagRecord, error)
	FindOrCreateTag(ctx context.Context, name string) (*TagRecord, bool, error)
	RenameTag(ctx context.Context, id uuid.UUID, name string) (*TagRecord, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error

	// Settings
	GetSettings(ctx context.Context, group string) (map[string]string, error)
	SaveSettings(ctx context.Context, group string, values map[string]string) error
	DeleteSettings(ctx context.Context, group string) error
}

// SearchIndexer keeps the full-text index in step with the store.
type SearchIndexer interface {
	IndexBook(book *domain.Book) error
	DeleteBook(id uuid.UUID) error
}
