// Package domain contains the core entities of the Librum library: books,
// their metadata and the tags users attach to them.
package domain

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/id"
)

// coverDataURIPrefix is prepended by CoverAsStringWithType.
const coverDataURIPrefix = "data:image/png;base64,"

// Metadata is the descriptive information about a book, independent of
// reading state.
type Metadata struct {
	Title        string
	Authors      string
	Creator      string
	Format       string
	Language     string
	CreationDate string // free-form, as reported by the document
	DocumentSize string // display string, e.g. "2.3 MiB"
	PagesSize    string // display string, e.g. "210 x 297 mm"
	PageCount    int

	// Timestamps are UTC. The zero value means "not set".
	AddedToLibrary time.Time
	LastOpened     time.Time
	LastModified   time.Time

	Cover image.Image // nil when the book has no cover
}

// Book is one e-book in the library.
//
// A Book is not safe for concurrent use; its owner serialises access.
// CurrentPage is not checked against PageCount here, that is up to the owner.
type Book struct {
	Metadata

	FilePath    string
	CurrentPage int // zero-based
	Downloaded  bool

	id   uuid.UUID
	tags []Tag
}

// NewBook creates a book. An empty bookID generates a new identifier; an
// unparsable one does too.
func NewBook(filePath string, metadata Metadata, currentPage int, bookID string) *Book {
	return &Book{
		Metadata:    metadata,
		FilePath:    filePath,
		CurrentPage: currentPage,
		id:          id.ParseOrNew(bookID),
	}
}

// ID returns the book's immutable identifier.
func (b *Book) ID() uuid.UUID {
	return b.id
}

// UpdateLastModified stamps LastModified with the current UTC time.
func (b *Book) UpdateLastModified() {
	b.LastModified = time.Now().UTC()
}

// Cover returns the raw cover image, or nil.
func (b *Book) Cover() image.Image {
	return b.Metadata.Cover
}

// SetCover replaces the cover image. Pass nil to clear it.
func (b *Book) SetCover(img image.Image) {
	b.Metadata.Cover = img
}

// CoverAsString returns the cover encoded as Base64 PNG, or "" if unset.
// The image is re-encoded on every call.
func (b *Book) CoverAsString() string {
	if b.Metadata.Cover == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Metadata.Cover); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// CoverAsStringWithType is CoverAsString with a data URI prefix.
func (b *Book) CoverAsStringWithType() string {
	encoded := b.CoverAsString()
	if encoded == "" {
		return ""
	}
	return coverDataURIPrefix + encoded
}

// PercentageRead returns reading completion in the range 0..100.
//
// A book that was never opened, has no pages, or has more than one page and
// is still on page 0 reports 0. Otherwise the result is
// (CurrentPage+1)/PageCount*100 rounded to nearest, halves away from zero.
func (b *Book) PercentageRead() int {
	if b.LastOpened.IsZero() || b.PageCount <= 0 {
		return 0
	}
	if b.PageCount > 1 && b.CurrentPage == 0 {
		return 0
	}

	fraction := float64(b.CurrentPage+1) / float64(b.PageCount)
	percentage := int(math.Round(fraction * 100))

	return min(max(percentage, 0), 100)
}

// Tags returns a copy of the book's tags in insertion order.
func (b *Book) Tags() []Tag {
	return slices.Clone(b.tags)
}

// AddTag appends tag unless a tag with the same ID is already present.
// Returns true if the tag was added.
func (b *Book) AddTag(tag Tag) bool {
	if b.tagIndex(tag.ID) >= 0 {
		return false
	}
	b.tags = append(b.tags, tag)
	return true
}

// RemoveTag removes the tag with the given ID.
// Returns true if a tag was removed.
func (b *Book) RemoveTag(tagID uuid.UUID) bool {
	i := b.tagIndex(tagID)
	if i < 0 {
		return false
	}
	b.tags = slices.Delete(b.tags, i, i+1)
	return true
}

// Tag returns a copy of the tag with the given ID.
func (b *Book) Tag(tagID uuid.UUID) (Tag, bool) {
	i := b.tagIndex(tagID)
	if i < 0 {
		return Tag{}, false
	}
	return b.tags[i], true
}

// RenameTag changes the name of the tag with the given ID in place.
// Returns true if the tag was found.
func (b *Book) RenameTag(tagID uuid.UUID, name string) bool {
	i := b.tagIndex(tagID)
	if i < 0 {
		return false
	}
	b.tags[i].Name = name
	return true
}

// TagsAreTheSame reports whether other holds equal tags in the same order.
func (b *Book) TagsAreTheSame(other []Tag) bool {
	return slices.EqualFunc(b.tags, other, Tag.Equal)
}

func (b *Book) tagIndex(tagID uuid.UUID) int {
	return slices.IndexFunc(b.tags, func(t Tag) bool {
		return t.ID == tagID
	})
}

// Update copies other's metadata, file path and tags into b.
//
// The identifier, CurrentPage and Downloaded are local state and are never
// taken from other. Tags are replaced wholesale, not merged.
// Use Diff first if the caller needs to know what changed.
func (b *Book) Update(other *Book) {
	b.Metadata = other.Metadata
	b.FilePath = other.FilePath

	if !b.TagsAreTheSame(other.tags) {
		b.tags = slices.Clone(other.tags)
	}
}

// Field names reported by Diff.
const (
	FieldTitle          = "title"
	FieldAuthors        = "authors"
	FieldCreator        = "creator"
	FieldFormat         = "format"
	FieldLanguage       = "language"
	FieldCreationDate   = "creationDate"
	FieldDocumentSize   = "documentSize"
	FieldPagesSize      = "pagesSize"
	FieldPageCount      = "pageCount"
	FieldAddedToLibrary = "addedToLibrary"
	FieldLastOpened     = "lastOpened"
	FieldLastModified   = "lastModified"
	FieldCover          = "cover"
	FieldFilePath       = "filePath"
	FieldTags           = "tags"
)

// Diff returns the names of the fields Update(other) would change, in
// serialization order. An empty result means Update is a no-op.
func (b *Book) Diff(other *Book) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	a, o := b.Metadata, other.Metadata
	add(FieldTitle, a.Title != o.Title)
	add(FieldAuthors, a.Authors != o.Authors)
	add(FieldCreator, a.Creator != o.Creator)
	add(FieldPageCount, a.PageCount != o.PageCount)
	add(FieldCreationDate, a.CreationDate != o.CreationDate)
	add(FieldFormat, a.Format != o.Format)
	add(FieldLanguage, a.Language != o.Language)
	add(FieldDocumentSize, a.DocumentSize != o.DocumentSize)
	add(FieldPagesSize, a.PagesSize != o.PagesSize)
	add(FieldAddedToLibrary, !a.AddedToLibrary.Equal(o.AddedToLibrary))
	add(FieldLastOpened, !a.LastOpened.Equal(o.LastOpened))
	add(FieldLastModified, !a.LastModified.Equal(o.LastModified))
	add(FieldFilePath, b.FilePath != other.FilePath)
	add(FieldCover, !coversEqual(a.Cover, o.Cover))
	add(FieldTags, !b.TagsAreTheSame(other.tags))

	return changed
}

// Equal compares identity, file path, downloaded flag, current page and
// metadata. Tags are not compared; use TagsAreTheSame for that.
func (b *Book) Equal(other *Book) bool {
	if b == nil || other == nil {
		return b == other
	}
	sameData := b.id == other.id &&
		b.FilePath == other.FilePath &&
		b.Downloaded == other.Downloaded &&
		b.CurrentPage == other.CurrentPage

	return sameData && b.Metadata.Equal(other.Metadata)
}

// Equal reports whether two metadata values are identical. Timestamps are
// compared as instants and covers pixel by pixel.
func (m Metadata) Equal(other Metadata) bool {
	return m.Title == other.Title &&
		m.Authors == other.Authors &&
		m.Creator == other.Creator &&
		m.Format == other.Format &&
		m.Language == other.Language &&
		m.CreationDate == other.CreationDate &&
		m.DocumentSize == other.DocumentSize &&
		m.PagesSize == other.PagesSize &&
		m.PageCount == other.PageCount &&
		m.AddedToLibrary.Equal(other.AddedToLibrary) &&
		m.LastOpened.Equal(other.LastOpened) &&
		m.LastModified.Equal(other.LastModified) &&
		coversEqual(m.Cover, other.Cover)
}

func coversEqual(a, b image.Image) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	bounds := a.Bounds()
	if bounds != b.Bounds() {
		return false
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}
