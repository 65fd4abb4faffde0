package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
	"github.com/librumreader/librum-core/internal/media/covers"
	"github.com/librumreader/librum-core/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns every book in the library sorted by title",
		Tags:        []string{"Books"},
	}, handle(s.handleListBooks))

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book file to the library",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, handle(s.handleAddBook))

	huma.Register(s.api, huma.Operation{
		OperationID:      "importBook",
		Method:           http.MethodPost,
		Path:             "/api/v1/books/import",
		Summary:          "Import book",
		Description:      "Imports a book JSON document, merging it into an existing book with the same ID",
		Tags:             []string{"Books"},
		SkipValidateBody: true, // the service decodes the document leniently
	}, handle(s.handleImportBook))

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, handle(s.handleGetBook))

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book from the library. The book file is left on disk.",
		Tags:        []string{"Books"},
	}, handle(s.handleDeleteBook))

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProgress",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/progress",
		Summary:     "Update reading progress",
		Description: "Sets the zero-based current page and stamps the last opened time",
		Tags:        []string{"Books"},
	}, handle(s.handleUpdateProgress))

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookCover",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/cover",
		Summary:     "Get cover",
		Description: "Returns the book cover as PNG",
		Tags:        []string{"Covers"},
	}, handle(s.handleGetCover))

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadBookCover",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/cover",
		Summary:     "Upload cover",
		Description: "Replaces the book cover. Accepts PNG, JPEG, GIF or WebP.",
		Tags:        []string{"Covers"},
	}, handle(s.handleUploadCover))

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBookCover",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/cover",
		Summary:     "Delete cover",
		Description: "Removes the book cover",
		Tags:        []string{"Covers"},
	}, handle(s.handleDeleteCover))

	huma.Register(s.api, huma.Operation{
		OperationID: "exportBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/export",
		Summary:     "Export book",
		Description: "Returns the book as its JSON document",
		Tags:        []string{"Books"},
	}, handle(s.handleExportBook))

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/tags",
		Summary:     "Tag book",
		Description: "Adds a tag to a book by name, creating the tag if needed",
		Tags:        []string{"Tags"},
	}, handle(s.handleAddBookTag))

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBookTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/tags/{tagID}",
		Summary:     "Untag book",
		Description: "Removes a tag from a book",
		Tags:        []string{"Tags"},
	}, handle(s.handleRemoveBookTag))
}

// === DTOs ===

// BookTagResponse is a tag as listed on a book.
type BookTagResponse struct {
	ID   string `json:"id" doc:"Tag ID"`
	Name string `json:"name" doc:"Display name"`
}

// BookResponse is a book in API responses.
type BookResponse struct {
	ID             string            `json:"id" doc:"Book ID"`
	Title          string            `json:"title" doc:"Title"`
	Authors        string            `json:"authors" doc:"Authors"`
	Creator        string            `json:"creator,omitempty" doc:"Creating application"`
	Format         string            `json:"format,omitempty" doc:"Document format"`
	Language       string            `json:"language,omitempty" doc:"Language"`
	CreationDate   string            `json:"creationDate,omitempty" doc:"Creation date as reported by the document"`
	DocumentSize   string            `json:"documentSize,omitempty" doc:"Document size for display"`
	PagesSize      string            `json:"pagesSize,omitempty" doc:"Page size for display"`
	PageCount      int               `json:"pageCount" doc:"Number of pages"`
	CurrentPage    int               `json:"currentPage" doc:"Zero-based current page"`
	PercentageRead int               `json:"percentageRead" doc:"Reading progress, 0 to 100"`
	FilePath       string            `json:"filePath" doc:"Path of the book file"`
	Downloaded     bool              `json:"downloaded" doc:"Whether the book file is present"`
	AddedToLibrary string            `json:"addedToLibrary,omitempty" doc:"When the book was added"`
	LastOpened     string            `json:"lastOpened,omitempty" doc:"When the book was last opened"`
	LastModified   string            `json:"lastModified,omitempty" doc:"When the book was last modified"`
	HasCover       bool              `json:"hasCover" doc:"Whether the book has a cover"`
	CoverBlurHash  string            `json:"coverBlurHash,omitempty" doc:"BlurHash placeholder for the cover"`
	Tags           []BookTagResponse `json:"tags" doc:"Tags in the order they were added"`
}

func (s *Server) toBookResponse(ctx context.Context, b *domain.Book) BookResponse {
	tags := b.Tags()
	tagResponses := make([]BookTagResponse, len(tags))
	for i, t := range tags {
		tagResponses[i] = BookTagResponse{ID: t.ID.String(), Name: t.Name}
	}

	resp := BookResponse{
		ID:             b.ID().String(),
		Title:          b.Title,
		Authors:        b.Authors,
		Creator:        b.Creator,
		Format:         b.Format,
		Language:       b.Language,
		CreationDate:   b.CreationDate,
		DocumentSize:   b.DocumentSize,
		PagesSize:      b.PagesSize,
		PageCount:      b.PageCount,
		CurrentPage:    b.CurrentPage,
		PercentageRead: b.PercentageRead(),
		FilePath:       b.FilePath,
		Downloaded:     b.Downloaded,
		AddedToLibrary: domain.FormatDateTime(b.AddedToLibrary),
		LastOpened:     domain.FormatDateTime(b.LastOpened),
		LastModified:   domain.FormatDateTime(b.LastModified),
		HasCover:       b.Cover() != nil,
		Tags:           tagResponses,
	}

	if resp.HasCover {
		hash, err := s.services.Book.CoverBlurHash(ctx, b.ID())
		if err != nil {
			s.logger.Warn("failed to load cover blurhash", "book_id", resp.ID, "error", err)
		}
		resp.CoverBlurHash = hash
	}

	return resp
}

// BookOutput wraps a single book.
type BookOutput struct {
	Body BookResponse
}

// ListBooksResponse contains the library's books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Books sorted by title"`
	Total int            `json:"total" doc:"Number of books"`
}

// ListBooksOutput wraps the book list.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// BookIDInput identifies a book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// AddBookRequest is the request body for adding a book.
type AddBookRequest struct {
	FilePath     string `json:"filePath" doc:"Path of the book file"`
	Title        string `json:"title" doc:"Title"`
	Authors      string `json:"authors,omitempty" doc:"Authors"`
	Creator      string `json:"creator,omitempty" doc:"Creating application"`
	Format       string `json:"format,omitempty" doc:"Document format, e.g. pdf or epub"`
	Language     string `json:"language,omitempty" doc:"Language"`
	CreationDate string `json:"creationDate,omitempty" doc:"Creation date as reported by the document"`
	DocumentSize string `json:"documentSize,omitempty" doc:"Document size for display"`
	PagesSize    string `json:"pagesSize,omitempty" doc:"Page size for display"`
	PageCount    int    `json:"pageCount,omitempty" doc:"Number of pages"`
}

// AddBookInput wraps the add book request.
type AddBookInput struct {
	Body AddBookRequest
}

// ImportBookInput carries a raw book JSON document.
type ImportBookInput struct {
	RawBody []byte `contentType:"application/json"`
}

// ImportBookResponse reports the outcome of an import.
type ImportBookResponse struct {
	Book    BookResponse `json:"book" doc:"The imported or merged book"`
	Created bool         `json:"created" doc:"True if the book was new to the library"`
	Changed []string     `json:"changed" doc:"Fields changed on an existing book"`
}

// ImportBookOutput wraps the import result.
type ImportBookOutput struct {
	Body ImportBookResponse
}

// UpdateProgressRequest is the request body for updating reading progress.
type UpdateProgressRequest struct {
	CurrentPage int `json:"currentPage" doc:"Zero-based page number"`
}

// UpdateProgressInput wraps the progress update.
type UpdateProgressInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateProgressRequest
}

// CoverImageOutput is a PNG cover.
type CoverImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// UploadCoverInput carries raw cover image bytes.
type UploadCoverInput struct {
	ID      string `path:"id" doc:"Book ID"`
	RawBody []byte
}

// CoverResponse describes a stored cover.
type CoverResponse struct {
	BlurHash string `json:"blurHash" doc:"BlurHash placeholder for the cover"`
}

// CoverOutput wraps the cover response.
type CoverOutput struct {
	Body CoverResponse
}

// ExportBookOutput is a book JSON document download.
type ExportBookOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// AddBookTagRequest is the request body for tagging a book.
type AddBookTagRequest struct {
	Name string `json:"name" doc:"Tag name; an existing tag with the same slug is reused"`
}

// AddBookTagInput wraps the tag request.
type AddBookTagInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body AddBookTagRequest
}

// AddBookTagResponse reports the tag attached to the book.
type AddBookTagResponse struct {
	Tag     TagResponse `json:"tag" doc:"The attached tag"`
	Created bool        `json:"created" doc:"True if the tag did not exist before"`
}

// AddBookTagOutput wraps the tag response.
type AddBookTagOutput struct {
	Body AddBookTagResponse
}

// RemoveBookTagInput identifies a tag on a book.
type RemoveBookTagInput struct {
	ID    string `path:"id" doc:"Book ID"`
	TagID string `path:"tagID" doc:"Tag ID"`
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = s.toBookResponse(ctx, b)
	}

	return &ListBooksOutput{
		Body: ListBooksResponse{Books: resp, Total: len(resp)},
	}, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	book, err := s.services.Book.AddBook(ctx, service.AddBookRequest{
		FilePath:     input.Body.FilePath,
		Title:        input.Body.Title,
		Authors:      input.Body.Authors,
		Creator:      input.Body.Creator,
		Format:       input.Body.Format,
		Language:     input.Body.Language,
		CreationDate: input.Body.CreationDate,
		DocumentSize: input.Body.DocumentSize,
		PagesSize:    input.Body.PagesSize,
		PageCount:    input.Body.PageCount,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: s.toBookResponse(ctx, book)}, nil
}

func (s *Server) handleImportBook(ctx context.Context, input *ImportBookInput) (*ImportBookOutput, error) {
	result, err := s.services.Book.ImportBook(ctx, input.RawBody)
	if err != nil {
		return nil, err
	}

	changed := result.Changed
	if changed == nil {
		changed = []string{}
	}

	return &ImportBookOutput{
		Body: ImportBookResponse{
			Book:    s.toBookResponse(ctx, result.Book),
			Created: result.Created,
			Changed: changed,
		},
	}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: s.toBookResponse(ctx, book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, bookID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleUpdateProgress(ctx context.Context, input *UpdateProgressInput) (*BookOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.SetCurrentPage(ctx, bookID, input.Body.CurrentPage)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: s.toBookResponse(ctx, book)}, nil
}

func (s *Server) handleGetCover(ctx context.Context, input *BookIDInput) (*CoverImageOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.Cover() == nil {
		return nil, errors.NotFoundf("book %s has no cover", bookID)
	}

	data, err := covers.EncodePNG(book.Cover())
	if err != nil {
		return nil, err
	}

	return &CoverImageOutput{
		ContentType:  "image/png",
		CacheControl: "no-cache",
		Body:         data,
	}, nil
}

func (s *Server) handleUploadCover(ctx context.Context, input *UploadCoverInput) (*CoverOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	hash, err := s.services.Book.SetCover(ctx, bookID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &CoverOutput{Body: CoverResponse{BlurHash: hash}}, nil
}

func (s *Server) handleDeleteCover(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.ClearCover(ctx, bookID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Cover deleted"}}, nil
}

func (s *Server) handleExportBook(ctx context.Context, input *BookIDInput) (*ExportBookOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	data, err := s.services.Book.ExportBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &ExportBookOutput{
		ContentType:        "application/json",
		ContentDisposition: `attachment; filename="` + bookID.String() + `.json"`,
		Body:               data,
	}, nil
}

func (s *Server) handleAddBookTag(ctx context.Context, input *AddBookTagInput) (*AddBookTagOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	tag, created, err := s.services.Tag.AddTagToBook(ctx, bookID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &AddBookTagOutput{
		Body: AddBookTagResponse{
			Tag:     toTagResponse(tag),
			Created: created,
		},
	}, nil
}

func (s *Server) handleRemoveBookTag(ctx context.Context, input *RemoveBookTagInput) (*MessageOutput, error) {
	bookID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}
	tagID, err := parseID("tagID", input.TagID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.RemoveTagFromBook(ctx, bookID, tagID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag removed"}}, nil
}
