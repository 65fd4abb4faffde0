package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
	"github.com/librumreader/librum-core/internal/store"
	"github.com/librumreader/librum-core/internal/util"
	"github.com/librumreader/librum-core/internal/validation"
)

// TagService orchestrates tag operations. Tags are global; a tag is shared
// by every book that carries it.
type TagService struct {
	books     *BookService
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service. Book mutations go through books
// so they share its lock and index updates.
func NewTagService(books *BookService, st store.Store, validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{
		books:     books,
		store:     st,
		validator: validator,
		logger:    logger,
	}
}

// ListTags returns all tags ordered by slug with their book counts.
func (s *TagService) ListTags(ctx context.Context) ([]*store.TagRecord, error) {
	return s.store.ListTags(ctx)
}

// AddTagToBook tags a book, creating the tag if no tag with the same slug
// exists. Adding a tag the book already carries is a no-op.
// Returns the tag and whether it was newly created.
func (s *TagService) AddTagToBook(ctx context.Context, bookID uuid.UUID, name string) (*store.TagRecord, bool, error) {
	name = util.CleanTagName(name)
	if err := s.validator.Validate(tagNameRequest{Name: name}); err != nil {
		return nil, false, err
	}

	s.books.mu.Lock()
	defer s.books.mu.Unlock()

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, false, err
	}

	tag, created, err := s.store.FindOrCreateTag(ctx, name)
	if err != nil {
		return nil, false, err
	}

	if !book.AddTag(tag.Tag()) {
		return tag, created, nil
	}
	book.UpdateLastModified()

	if err := s.books.save(ctx, book); err != nil {
		return nil, false, err
	}

	s.logger.Info("tag added to book",
		"tag_slug", tag.Slug,
		"book_id", bookID.String(),
		"created", created,
	)
	return tag, created, nil
}

// RemoveTagFromBook removes a tag from a book.
// Returns NOT_FOUND if the book does not carry the tag.
func (s *TagService) RemoveTagFromBook(ctx context.Context, bookID, tagID uuid.UUID) error {
	s.books.mu.Lock()
	defer s.books.mu.Unlock()

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if !book.RemoveTag(tagID) {
		return errors.NotFoundf("book %s has no tag %s", bookID, tagID)
	}
	book.UpdateLastModified()

	if err := s.books.save(ctx, book); err != nil {
		return err
	}

	s.logger.Info("tag removed from book",
		"tag_id", tagID.String(),
		"book_id", bookID.String(),
	)
	return nil
}

// RenameTag renames a tag and rewrites every book carrying it.
// Returns ALREADY_EXISTS if the new name collides with another tag's slug.
func (s *TagService) RenameTag(ctx context.Context, tagID uuid.UUID, name string) (*store.TagRecord, error) {
	name = util.CleanTagName(name)
	if err := s.validator.Validate(tagNameRequest{Name: name}); err != nil {
		return nil, err
	}

	s.books.mu.Lock()
	defer s.books.mu.Unlock()

	tag, err := s.store.RenameTag(ctx, tagID, name)
	if err != nil {
		return nil, err
	}

	bookIDs, err := s.store.BookIDsWithTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	err = s.touchBooks(ctx, bookIDs, func(b *domain.Book) {
		b.RenameTag(tagID, tag.Name)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tag renamed",
		"tag_id", tagID.String(),
		"slug", tag.Slug,
		"books", len(bookIDs),
	)
	return tag, nil
}

// DeleteTag deletes a tag and removes it from every book carrying it.
func (s *TagService) DeleteTag(ctx context.Context, tagID uuid.UUID) error {
	s.books.mu.Lock()
	defer s.books.mu.Unlock()

	bookIDs, err := s.store.BookIDsWithTag(ctx, tagID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return err
	}

	err = s.touchBooks(ctx, bookIDs, func(b *domain.Book) {
		b.RemoveTag(tagID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("tag deleted", "tag_id", tagID.String(), "books", len(bookIDs))
	return nil
}

// touchBooks applies fn to each book, stamps LastModified and saves it.
// Callers hold the book service lock.
func (s *TagService) touchBooks(ctx context.Context, bookIDs []uuid.UUID, fn func(*domain.Book)) error {
	for _, bookID := range bookIDs {
		book, err := s.store.GetBook(ctx, bookID)
		if err != nil {
			return err
		}
		fn(book)
		book.UpdateLastModified()
		if err := s.books.save(ctx, book); err != nil {
			return err
		}
	}
	return nil
}
