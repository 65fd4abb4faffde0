package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librumreader/librum-core/internal/color"
	"github.com/librumreader/librum-core/internal/store"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags with the number of books carrying each",
		Tags:        []string{"Tags"},
	}, handle(s.handleListTags))

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Rename tag",
		Description: "Renames a tag on every book carrying it",
		Tags:        []string{"Tags"},
	}, handle(s.handleUpdateTag))

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and removes it from every book",
		Tags:        []string{"Tags"},
	}, handle(s.handleDeleteTag))
}

// === DTOs ===

// TagResponse is a tag in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Display name"`
	Slug      string    `json:"slug" doc:"Normalized lookup key"`
	Color     string    `json:"color" doc:"Display color derived from the slug"`
	BookCount int       `json:"bookCount" doc:"Number of books with this tag"`
	CreatedAt time.Time `json:"createdAt" doc:"Creation time"`
}

func toTagResponse(t *store.TagRecord) TagResponse {
	return TagResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Slug:      t.Slug,
		Color:     color.ForKey(t.Slug),
		BookCount: t.BookCount,
		CreatedAt: t.CreatedAt,
	}
}

// ListTagsResponse contains all tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"Tags sorted by name"`
}

// ListTagsOutput wraps the tag list.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// UpdateTagRequest is the request body for renaming a tag.
type UpdateTagRequest struct {
	Name string `json:"name" doc:"New display name"`
}

// UpdateTagInput wraps the rename request.
type UpdateTagInput struct {
	ID   string `path:"id" doc:"Tag ID"`
	Body UpdateTagRequest
}

// TagOutput wraps a single tag.
type TagOutput struct {
	Body TagResponse
}

// TagIDInput identifies a tag.
type TagIDInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a confirmation message.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tag.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toTagResponse(t)
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	tagID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.RenameTag(ctx, tagID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*MessageOutput, error) {
	tagID, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.DeleteTag(ctx, tagID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}
