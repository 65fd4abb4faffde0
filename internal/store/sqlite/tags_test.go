package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
)

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := domain.NewTag("Slow Burn")
	created, err := s.CreateTag(ctx, tag)
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if created.Slug != "slow-burn" {
		t.Errorf("Slug: got %q, want %q", created.Slug, "slow-burn")
	}

	got, err := s.GetTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if !got.Tag().Equal(tag) {
		t.Errorf("Tag: got %+v, want %+v", got.Tag(), tag)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestCreateTag_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateTag(ctx, domain.NewTag("Slow Burn")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	_, err := s.CreateTag(ctx, domain.NewTag("slow_burn"))
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateTag_UnusableName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateTag(context.Background(), domain.NewTag("!!!"))
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetTag(ctx, uuid.New()); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetTag: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetTagBySlug(ctx, "nothing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetTagBySlug: expected ErrNotFound, got %v", err)
	}
}

func TestListTags_WithCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fantasy := domain.NewTag("fantasy")
	classics := domain.NewTag("classics")
	if _, err := s.CreateTag(ctx, fantasy); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	a := makeTestBook("A", "/a.pdf")
	a.AddTag(fantasy)
	a.AddTag(classics)
	b := makeTestBook("B", "/b.pdf")
	b.AddTag(fantasy)
	for _, book := range []*domain.Book{a, b} {
		if err := s.SaveBook(ctx, book); err != nil {
			t.Fatalf("SaveBook: %v", err)
		}
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].Slug != "classics" || tags[0].BookCount != 1 {
		t.Errorf("tags[0]: got %s/%d, want classics/1", tags[0].Slug, tags[0].BookCount)
	}
	if tags[1].Slug != "fantasy" || tags[1].BookCount != 2 {
		t.Errorf("tags[1]: got %s/%d, want fantasy/2", tags[1].Slug, tags[1].BookCount)
	}
}

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.FindOrCreateTag(ctx, "Café Noir")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}
	if !created {
		t.Error("expected tag to be created")
	}
	if first.Name != "Café Noir" || first.Slug != "cafe-noir" {
		t.Errorf("got %q/%q", first.Name, first.Slug)
	}

	second, created, err := s.FindOrCreateTag(ctx, "cafe noir")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}
	if created {
		t.Error("expected existing tag to be found")
	}
	if second.ID != first.ID {
		t.Errorf("ID: got %s, want %s", second.ID, first.ID)
	}
}

func TestRenameTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := domain.NewTag("scifi")
	other := domain.NewTag("horror")
	for _, tg := range []domain.Tag{tag, other} {
		if _, err := s.CreateTag(ctx, tg); err != nil {
			t.Fatalf("CreateTag: %v", err)
		}
	}

	renamed, err := s.RenameTag(ctx, tag.ID, "Science Fiction")
	if err != nil {
		t.Fatalf("RenameTag: %v", err)
	}
	if renamed.Name != "Science Fiction" || renamed.Slug != "science-fiction" {
		t.Errorf("got %q/%q", renamed.Name, renamed.Slug)
	}

	if _, err := s.RenameTag(ctx, tag.ID, "Horror"); !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.RenameTag(ctx, uuid.New(), "anything"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := domain.NewTag("ephemeral")
	book := makeTestBook("Tagged", "/tagged.pdf")
	book.AddTag(tag)
	if err := s.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	if err := s.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	got, err := s.GetBook(ctx, book.ID())
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if len(got.Tags()) != 0 {
		t.Errorf("expected tag to be gone from book, got %v", got.Tags())
	}

	if err := s.DeleteTag(ctx, tag.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
