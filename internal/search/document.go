// Package search provides full-text search over the library using Bleve.
package search

import (
	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/normalize"
	"github.com/librumreader/librum-core/internal/util"
)

// BookDocument is the indexed form of a book.
//
// Tag names are indexed as text and their slugs as keywords, so a search for
// "slow burn" matches by name while a filter on "slow-burn" matches exactly.
// Format and language hold grouping keys, so "English" and "en-US" facet
// together as "en".
type BookDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  string   `json:"authors,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Format   string   `json:"format,omitempty"`
	Language string   `json:"language,omitempty"`
	FilePath string   `json:"file_path,omitempty"`
	TagNames []string `json:"tag_names,omitempty"`
	TagSlugs []string `json:"tag_slugs,omitempty"`

	// Unix millis; zero when unset.
	AddedAt    int64 `json:"added_at"`
	LastOpened int64 `json:"last_opened"`
}

// BookToDocument builds the index document for a book.
func BookToDocument(b *domain.Book) *BookDocument {
	doc := &BookDocument{
		ID:       b.ID().String(),
		Title:    b.Title,
		Authors:  b.Authors,
		Creator:  b.Creator,
		Format:   normalize.FormatKey(b.Format),
		Language: normalize.LanguageKey(b.Language),
		FilePath: b.FilePath,
	}
	if !b.AddedToLibrary.IsZero() {
		doc.AddedAt = b.AddedToLibrary.UnixMilli()
	}
	if !b.LastOpened.IsZero() {
		doc.LastOpened = b.LastOpened.UnixMilli()
	}

	for _, tag := range b.Tags() {
		doc.TagNames = append(doc.TagNames, tag.Name)
		if slug := util.NormalizeTagSlug(tag.Name); slug != "" {
			doc.TagSlugs = append(doc.TagSlugs, slug)
		}
	}

	return doc
}

// ToMap converts the document to a map with the field names used by the
// index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"added_at":    d.AddedAt,
		"last_opened": d.LastOpened,
	}

	if d.Authors != "" {
		m["authors"] = d.Authors
	}
	if d.Creator != "" {
		m["creator"] = d.Creator
	}
	if d.Format != "" {
		m["format"] = d.Format
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if d.FilePath != "" {
		m["file_path"] = d.FilePath
	}
	if len(d.TagNames) > 0 {
		m["tag_names"] = d.TagNames
	}
	if len(d.TagSlugs) > 0 {
		m["tag_slugs"] = d.TagSlugs
	}

	return m
}
