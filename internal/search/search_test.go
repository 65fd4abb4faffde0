package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librumreader/librum-core/internal/domain"
)

// setupTestIndex creates a memory-only search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func makeBook(title, authors, format string, tags ...string) *domain.Book {
	book := domain.NewBook("/books/"+title+"."+format, domain.Metadata{
		Title:          title,
		Authors:        authors,
		Format:         format,
		Language:       "English",
		AddedToLibrary: time.Now().UTC(),
	}, 0, "")
	for _, name := range tags {
		book.AddTag(domain.NewTag(name))
	}
	return book
}

func indexAll(t *testing.T, index *SearchIndex, books ...*domain.Book) {
	t.Helper()
	require.NoError(t, index.IndexBooks(books))
}

func hitIDs(result *SearchResult) []string {
	ids := make([]string, len(result.Hits))
	for i, h := range result.Hits {
		ids[i] = h.ID
	}
	return ids
}

func TestNewSearchIndex_MemoryOnly(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_OnDiskReopen(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(makeBook("Dune", "Frank Herbert", "epub")))
	require.NoError(t, index.Close())

	version, err := os.ReadFile(filepath.Join(dir, "library.version"))
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(version))

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewSearchIndex_StaleVersionRebuilds(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(makeBook("Dune", "Frank Herbert", "epub")))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.version"), []byte("0"), 0o644))

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "stale index should be recreated empty")
}

func TestSearchIndex_IndexAndDelete(t *testing.T) {
	index := setupTestIndex(t)
	book := makeBook("The Hobbit", "J.R.R. Tolkien", "pdf")

	require.NoError(t, index.IndexBook(book))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Re-indexing replaces rather than duplicates.
	book.Title = "The Hobbit, or There and Back Again"
	require.NoError(t, index.IndexBook(book))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, index.DeleteBook(book.ID()))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearch_ByTitleAndAuthor(t *testing.T) {
	index := setupTestIndex(t)
	hobbit := makeBook("The Hobbit", "J.R.R. Tolkien", "pdf")
	dune := makeBook("Dune", "Frank Herbert", "epub")
	indexAll(t, index, hobbit, dune)

	params := DefaultSearchParams()
	params.Query = "hobbit"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, hobbit.ID().String(), result.Hits[0].ID)
	assert.Equal(t, "The Hobbit", result.Hits[0].Title)
	assert.Equal(t, "J.R.R. Tolkien", result.Hits[0].Authors)

	params.Query = "herbert"
	result, err = index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{dune.ID().String()}, hitIDs(result))
}

func TestSearch_FuzzyTitle(t *testing.T) {
	index := setupTestIndex(t)
	dune := makeBook("Dune", "Frank Herbert", "epub")
	indexAll(t, index, dune)

	params := DefaultSearchParams()
	params.Query = "dume"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Contains(t, hitIDs(result), dune.ID().String())
}

func TestSearch_TagNameAndFilter(t *testing.T) {
	index := setupTestIndex(t)
	cozy := makeBook("Tea Shop", "A. Writer", "epub", "Slow Burn", "cozy")
	other := makeBook("Storm", "B. Writer", "epub", "cozy")
	indexAll(t, index, cozy, other)

	params := DefaultSearchParams()
	params.Query = "slow burn"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{cozy.ID().String()}, hitIDs(result))
	assert.ElementsMatch(t, []string{"Slow Burn", "cozy"}, result.Hits[0].Tags)

	params = DefaultSearchParams()
	params.Tags = []string{"Cozy"}
	result, err = index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)

	params.Tags = []string{"cozy", "slow-burn"}
	result, err = index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{cozy.ID().String()}, hitIDs(result))
}

func TestSearch_FormatFilterAndFacets(t *testing.T) {
	index := setupTestIndex(t)
	indexAll(t, index,
		makeBook("One", "X", "pdf"),
		makeBook("Two", "X", "PDF"),
		makeBook("Three", "X", "epub"),
	)

	params := DefaultSearchParams()
	params.Formats = []string{"pdf"}
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)

	params = DefaultSearchParams()
	result, err = index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Total)
	assert.ElementsMatch(t, []FacetCount{{Value: "pdf", Count: 2}, {Value: "epub", Count: 1}}, result.Facets.Formats)
	assert.Equal(t, []FacetCount{{Value: "en", Count: 3}}, result.Facets.Languages)
}

func TestSearch_LanguageFilterAcceptsAnySpelling(t *testing.T) {
	index := setupTestIndex(t)
	german := makeBook("Der Prozess", "Kafka", "epub")
	german.Language = "deu"
	indexAll(t, index, german, makeBook("Emma", "Austen", "epub"))

	for _, lang := range []string{"de", "German", "de-AT"} {
		params := DefaultSearchParams()
		params.Languages = []string{lang}
		result, err := index.Search(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, []string{german.ID().String()}, hitIDs(result), lang)
	}
}

func TestSearch_SortByTitle(t *testing.T) {
	index := setupTestIndex(t)
	indexAll(t, index,
		makeBook("Charlie", "X", "pdf"),
		makeBook("Alpha", "X", "pdf"),
		makeBook("Bravo", "X", "pdf"),
	)

	params := DefaultSearchParams()
	params.SortBy = SortTitle
	params.SortOrder = "asc"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)

	var titles []string
	for _, h := range result.Hits {
		titles = append(titles, h.Title)
	}
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, titles)
}

func TestSearch_LimitAndOffset(t *testing.T) {
	index := setupTestIndex(t)
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		require.NoError(t, index.IndexBook(makeBook("Book "+title, "X", "pdf")))
	}

	params := DefaultSearchParams()
	params.Limit = 2
	params.Offset = 1
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	indexAll(t, index, makeBook("Old", "X", "pdf"), makeBook("Older", "X", "pdf"))

	fresh := makeBook("Fresh", "Y", "epub")
	require.NoError(t, index.Rebuild([]*domain.Book{fresh}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	params := DefaultSearchParams()
	params.Query = "fresh"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.ID().String()}, hitIDs(result))
}

func TestBookToDocument(t *testing.T) {
	book := makeBook("Café", "Ann", "EPUB", "Slow Burn")
	book.LastOpened = time.UnixMilli(1_700_000_000_000).UTC()

	doc := BookToDocument(book)

	assert.Equal(t, book.ID().String(), doc.ID)
	assert.Equal(t, "epub", doc.Format)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, []string{"Slow Burn"}, doc.TagNames)
	assert.Equal(t, []string{"slow-burn"}, doc.TagSlugs)
	assert.Equal(t, int64(1_700_000_000_000), doc.LastOpened)

	m := doc.ToMap()
	assert.NotContains(t, m, "creator")
	assert.Equal(t, "Café", m["title"])
}
