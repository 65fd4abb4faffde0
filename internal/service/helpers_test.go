package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/librumreader/librum-core/internal/media/covers"
	"github.com/librumreader/librum-core/internal/search"
	"github.com/librumreader/librum-core/internal/store/sqlite"
	"github.com/librumreader/librum-core/internal/validation"
)

type testEnv struct {
	books    *BookService
	tags     *TagService
	settings *SettingsService
	store    *sqlite.Store
	index    *search.SearchIndex
	dir      string
}

// setupTestServices wires the services to a temporary store and a
// memory-only search index.
func setupTestServices(t *testing.T) *testEnv {
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
	books := NewBookService(st, index, covers.NewProcessor(64, 96), v, logger)
	tags := NewTagService(books, st, v, logger)

	return &testEnv{
		books:    books,
		tags:     tags,
		settings: NewSettingsService(st, v, logger),
		store:    st,
		index:    index,
		dir:      dir,
	}
}

// touchFile creates an empty file under the test directory and returns its path.
func (e *testEnv) touchFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("book"), 0o644))
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
