package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
)

// TagRecord is a stored tag with its lookup slug.
type TagRecord struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
	BookCount int // only filled by ListTags
}

// Tag returns the domain tag for the record.
func (r *TagRecord) Tag() domain.Tag {
	return domain.Tag{ID: r.ID, Name: r.Name}
}

// NoopSearchIndexer discards index updates. Used when search is disabled.
type NoopSearchIndexer struct{}

// NewNoopSearchIndexer returns an indexer that does nothing.
func NewNoopSearchIndexer() NoopSearchIndexer {
	return NoopSearchIndexer{}
}

// IndexBook implements SearchIndexer.
func (NoopSearchIndexer) IndexBook(*domain.Book) error { return nil }

// DeleteBook implements SearchIndexer.
func (NoopSearchIndexer) DeleteBook(uuid.UUID) error { return nil }
