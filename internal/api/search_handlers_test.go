package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librumreader/librum-core/internal/search"
)

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)
	dune := ts.addBook(t, "Dune", 10)
	ts.addBook(t, "Emma", 10)

	resp := ts.api.Get("/api/v1/search?q=dune")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decodeBody[search.SearchResult](t, resp)
	assert.Equal(t, "dune", body.Query)
	require.Equal(t, uint64(1), body.Total)
	assert.Equal(t, dune.ID().String(), body.Hits[0].ID)
	assert.Equal(t, "Dune", body.Hits[0].Title)
}

func TestSearch_TagFilterAndFacets(t *testing.T) {
	ts := setupTestServer(t)
	dune := ts.addBook(t, "Dune", 10)
	ts.addBook(t, "Emma", 10)

	resp := ts.api.Post("/api/v1/books/"+dune.ID().String()+"/tags", map[string]any{"name": "Desert Planet"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/search?tags=desert-planet&facets=true")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decodeBody[search.SearchResult](t, resp)
	require.Equal(t, uint64(1), body.Total)
	assert.Equal(t, dune.ID().String(), body.Hits[0].ID)
	assert.Contains(t, body.Facets.Tags, search.FacetCount{Value: "desert-planet", Count: 1})
}

func TestSearch_SortByTitle(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBook(t, "Middlemarch", 10)
	ts.addBook(t, "Beloved", 10)

	resp := ts.api.Get("/api/v1/search?sort=title&order=asc")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decodeBody[search.SearchResult](t, resp)
	require.Len(t, body.Hits, 2)
	assert.Equal(t, "Beloved", body.Hits[0].Title)
	assert.Equal(t, "Middlemarch", body.Hits[1].Title)
}

func TestSearch_InvalidSort(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search?sort=pages")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decodeBody[APIError](t, resp).Code)
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
}
