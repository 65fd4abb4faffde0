package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/librumreader/librum-core/internal/normalize"
	"github.com/librumreader/librum-core/internal/util"
)

// Sort orders accepted in SearchParams.SortBy.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortAdded     = "added"
	SortOpened    = "opened"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // User's search query; empty matches every book

	// Filters, matched exactly after slug normalisation.
	Formats   []string
	Languages []string
	Tags      []string // all listed tags must be present

	Limit  int
	Offset int

	SortBy    string // SortRelevance, SortTitle, SortAdded or SortOpened
	SortOrder string // "asc" or "desc"

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        SortRelevance,
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets"`
}

// SearchHit is a single matching book.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Authors    string            `json:"authors,omitempty"`
	Format     string            `json:"format,omitempty"`
	Language   string            `json:"language,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Formats   []FacetCount `json:"formats,omitempty"`
	Languages []FacetCount `json:"languages,omitempty"`
	Tags      []FacetCount `json:"tags,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("format", bleve.NewFacetRequest("format", 20))
		searchRequest.AddFacet("language", bleve.NewFacetRequest("language", 20))
		searchRequest.AddFacet("tag_slugs", bleve.NewFacetRequest("tag_slugs", 20))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("authors")
	}

	searchRequest.Fields = []string{"title", "authors", "format", "language", "tag_names"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["authors"].(string); ok {
			searchHit.Authors = a
		}
		if f, ok := hit.Fields["format"].(string); ok {
			searchHit.Format = f
		}
		if l, ok := hit.Fields["language"].(string); ok {
			searchHit.Language = l
		}
		searchHit.Tags = stringsField(hit.Fields["tag_names"])

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(searchResult)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorsMatch := bleve.NewMatchQuery(q)
		authorsMatch.SetField("authors")
		authorsMatch.SetBoost(2.0)

		creatorMatch := bleve.NewMatchQuery(q)
		creatorMatch.SetField("creator")

		tagMatch := bleve.NewMatchQuery(q)
		tagMatch.SetField("tag_names")
		tagMatch.SetBoost(1.5)

		// Typo tolerance on titles
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, authorsMatch, creatorMatch, tagMatch, fuzzyQuery}

		// Prefix for search-as-you-type (minimum 2 chars)
		if len(q) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if q := anyTermQuery("format", params.Formats, normalize.FormatKey); q != nil {
		queries = append(queries, q)
	}
	if q := anyTermQuery("language", params.Languages, normalize.LanguageKey); q != nil {
		queries = append(queries, q)
	}
	for _, tag := range params.Tags {
		tq := bleve.NewTermQuery(util.NormalizeTagSlug(tag))
		tq.SetField("tag_slugs")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// anyTermQuery matches field against the key of any of values, or returns nil.
func anyTermQuery(field string, values []string, key func(string) string) query.Query {
	if len(values) == 0 {
		return nil
	}
	termQueries := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(key(v))
		tq.SetField(field)
		termQueries[i] = tq
	}
	return bleve.NewDisjunctionQuery(termQueries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	var field string
	var desc bool
	switch params.SortBy {
	case SortTitle:
		field = "title"
		desc = params.SortOrder == "desc"
	case SortAdded:
		field = "added_at"
		desc = params.SortOrder != "asc"
	case SortOpened:
		field = "last_opened"
		desc = params.SortOrder != "asc"
	default:
		req.SortBy([]string{"-_score"})
		return
	}

	if desc {
		field = "-" + field
	}
	req.SortBy([]string{field, "_id"})
}

// extractFacets converts Bleve facets to our format.
func extractFacets(result *bleve.SearchResult) SearchFacets {
	return SearchFacets{
		Formats:   facetCounts(result, "format"),
		Languages: facetCounts(result, "language"),
		Tags:      facetCounts(result, "tag_slugs"),
	}
}

func facetCounts(result *bleve.SearchResult, name string) []FacetCount {
	facet, ok := result.Facets[name]
	if !ok || facet.Terms == nil {
		return nil
	}

	var counts []FacetCount
	for _, term := range facet.Terms.Terms() {
		counts = append(counts, FacetCount{Value: term.Term, Count: term.Count})
	}
	return counts
}

// stringsField reads a stored field that may hold one string or several.
func stringsField(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
