package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librumreader/librum-core/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search library",
		Description: "Full-text search over titles, authors, creators and tags",
		Tags:        []string{"Search"},
	}, handle(s.handleSearch))
}

// === DTOs ===

// SearchInput contains parameters for searching the library.
type SearchInput struct {
	Query     string `query:"q" maxLength:"200" doc:"Search query. Omit to match every book."`
	Formats   string `query:"formats" maxLength:"200" doc:"Comma-separated formats to filter by"`
	Languages string `query:"languages" maxLength:"200" doc:"Comma-separated languages to filter by"`
	Tags      string `query:"tags" maxLength:"500" doc:"Comma-separated tag names or slugs; all must match"`
	Limit     int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	Sort      string `query:"sort" enum:"relevance,title,added,opened" doc:"Sort order"`
	Order     string `query:"order" enum:"asc,desc" doc:"Sort direction"`
	Facets    bool   `query:"facets" doc:"Include facets in response"`
	Highlight bool   `query:"highlight" doc:"Include highlighted matches"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body search.SearchResult
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = strings.TrimSpace(input.Query)
	params.Formats = splitCSV(input.Formats)
	params.Languages = splitCSV(input.Languages)
	params.Tags = splitCSV(input.Tags)
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets
	params.Highlight = input.Highlight
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}

	s.logger.Debug("search request received",
		"query", params.Query,
		"limit", params.Limit,
		"sort", params.SortBy,
	)

	result, err := s.services.Book.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", params.Query)
		return nil, err
	}

	return &SearchOutput{Body: *result}, nil
}

func splitCSV(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
