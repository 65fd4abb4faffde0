package sqlite

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
)

// makeTestBook creates a domain.Book with sensible defaults for testing.
func makeTestBook(title, path string) *domain.Book {
	md := domain.Metadata{
		Title:          title,
		Authors:        "Ann Author",
		Format:         "pdf",
		Language:       "en",
		PageCount:      120,
		AddedToLibrary: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		LastModified:   time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	return domain.NewBook(path, md, 3, "")
}

func TestSaveAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Dune", "/books/dune.pdf")
	book.Downloaded = true
	cover := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	cover.Set(1, 1, color.NRGBA{R: 255, A: 255})
	book.SetCover(cover)

	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID())
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if !got.Equal(book) {
		t.Errorf("round-tripped book differs:\n got %+v\nwant %+v", got, book)
	}
	if !got.Downloaded {
		t.Error("Downloaded flag was not persisted")
	}
}

func TestSaveBook_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Draft", "/books/a.pdf")
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	book.Title = "Final"
	book.CurrentPage = 10
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook (update): %v", err)
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
	if books[0].Title != "Final" || books[0].CurrentPage != 10 {
		t.Errorf("got title %q page %d, want Final/10", books[0].Title, books[0].CurrentPage)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBook(context.Background(), uuid.New())
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBookByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Emma", "/books/emma.epub")
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	got, err := s.GetBookByPath(ctx, "/books/emma.epub")
	if err != nil {
		t.Fatalf("GetBookByPath: %v", err)
	}
	if got.ID() != book.ID() {
		t.Errorf("ID: got %s, want %s", got.ID(), book.ID())
	}

	if _, err := s.GetBookByPath(ctx, "/books/missing.epub"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBooks_OrderedByTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"zebra", "Apple", "mango"} {
		if err := s.SaveBook(ctx, makeTestBook(title, "/books/"+title)); err != nil {
			t.Fatalf("SaveBook: %v", err)
		}
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}

	want := []string{"Apple", "mango", "zebra"}
	if len(books) != len(want) {
		t.Fatalf("expected %d books, got %d", len(want), len(books))
	}
	for i, b := range books {
		if b.Title != want[i] {
			t.Errorf("books[%d]: got %q, want %q", i, b.Title, want[i])
		}
	}
}

func TestListBooks_Empty(t *testing.T) {
	s := newTestStore(t)

	books, err := s.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", books)
	}
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Gone", "/books/gone.pdf")
	book.AddTag(domain.NewTag("temporary"))
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	if err := s.DeleteBook(ctx, book.ID()); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	if _, err := s.GetBook(ctx, book.ID()); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Associations cascade.
	ids, err := s.BookIDsWithTag(ctx, book.Tags()[0].ID)
	if err != nil {
		t.Fatalf("BookIDsWithTag: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no tagged books, got %v", ids)
	}

	if err := s.DeleteBook(ctx, book.ID()); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveBook_TagsKeepOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Tagged", "/books/tagged.pdf")
	first, second, third := domain.NewTag("zeta"), domain.NewTag("alpha"), domain.NewTag("mid")
	book.AddTag(first)
	book.AddTag(second)
	book.AddTag(third)

	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID())
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if !got.TagsAreTheSame([]domain.Tag{first, second, third}) {
		t.Errorf("tags: got %v", got.Tags())
	}

	ids, err := s.BookIDsWithTag(ctx, second.ID)
	if err != nil {
		t.Fatalf("BookIDsWithTag: %v", err)
	}
	if len(ids) != 1 || ids[0] != book.ID() {
		t.Errorf("BookIDsWithTag: got %v, want [%s]", ids, book.ID())
	}
}

func TestSaveBook_TagSlugCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.CreateTag(ctx, domain.NewTag("Sci Fi"))
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	// A different tag whose name normalises to the same slug.
	book := makeTestBook("Imported", "/books/imported.pdf")
	foreign := domain.NewTag("sci-fi")
	book.AddTag(foreign)

	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	got, err := s.GetTag(ctx, foreign.ID)
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Slug == existing.Slug {
		t.Errorf("expected a distinct slug, both are %q", got.Slug)
	}
}

func TestReadsReflectTagRename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Renamed", "/books/renamed.pdf")
	tag := domain.NewTag("old name")
	book.AddTag(tag)
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	if _, err := s.RenameTag(ctx, tag.ID, "new name"); err != nil {
		t.Fatalf("RenameTag: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID())
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	renamed, ok := got.Tag(tag.ID)
	if !ok || renamed.Name != "new name" {
		t.Errorf("tag after rename: got %+v (found %v)", renamed, ok)
	}
}

func TestSaveBook_TagNameFromBookWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Dune", "/books/dune.pdf")
	tag := domain.NewTag("scifi")
	book.AddTag(tag)
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	// The same tag arrives under a new name, as from an imported document.
	book.RenameTag(tag.ID, "Science Fiction")
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID())
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if !got.TagsAreTheSame(book.Tags()) {
		t.Errorf("tags: got %v, want %v", got.Tags(), book.Tags())
	}

	record, err := s.GetTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if record.Name != "Science Fiction" || record.Slug != "science-fiction" {
		t.Errorf("tag record: got %q/%q", record.Name, record.Slug)
	}
}

func TestCoverBlurHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := makeTestBook("Covered", "/books/covered.pdf")
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	hash, err := s.CoverBlurHash(ctx, book.ID())
	if err != nil {
		t.Fatalf("CoverBlurHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected no hash, got %q", hash)
	}

	if err := s.SetCoverBlurHash(ctx, book.ID(), "LEHV6nWB2yk8"); err != nil {
		t.Fatalf("SetCoverBlurHash: %v", err)
	}

	// Saving the book again keeps the hash.
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	hash, err = s.CoverBlurHash(ctx, book.ID())
	if err != nil {
		t.Fatalf("CoverBlurHash: %v", err)
	}
	if hash != "LEHV6nWB2yk8" {
		t.Errorf("hash: got %q", hash)
	}

	if err := s.SetCoverBlurHash(ctx, uuid.New(), "x"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
