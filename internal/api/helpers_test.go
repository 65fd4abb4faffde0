package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/media/covers"
	"github.com/librumreader/librum-core/internal/search"
	"github.com/librumreader/librum-core/internal/service"
	"github.com/librumreader/librum-core/internal/store/sqlite"
	"github.com/librumreader/librum-core/internal/validation"
)

// testServer wraps the API server with the pieces tests poke at directly.
type testServer struct {
	*Server
	api   humatest.TestAPI
	books *service.BookService
	tags  *service.TagService
	dir   string
}

// setupTestServer creates a server backed by a temporary SQLite store and a
// memory-only search index.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	v := validation.New()
	books := service.NewBookService(st, index, covers.NewProcessor(64, 96), v, logger)
	tags := service.NewTagService(books, st, v, logger)

	settings := service.NewSettingsService(st, v, logger)

	s := NewServer(st, index, &Services{Book: books, Tag: tags, Settings: settings}, Options{
		CORSOrigins: []string{"http://localhost:5173"},
	}, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		books:  books,
		tags:   tags,
		dir:    dir,
	}
}

// addBook adds a book whose file exists in the test directory.
func (ts *testServer) addBook(t *testing.T, title string, pageCount int) *domain.Book {
	t.Helper()

	path := filepath.Join(ts.dir, title+".pdf")
	require.NoError(t, os.WriteFile(path, []byte("book"), 0o644))

	book, err := ts.books.AddBook(context.Background(), service.AddBookRequest{
		FilePath:  path,
		Title:     title,
		Authors:   "Test Author",
		Format:    "pdf",
		PageCount: pageCount,
	})
	require.NoError(t, err)
	return book
}

func decodeBody[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "body: %s", resp.Body.String())
	return v
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 2), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
