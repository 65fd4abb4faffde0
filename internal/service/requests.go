package service

import (
	"strings"

	"github.com/librumreader/librum-core/internal/domain"
)

// AddBookRequest describes a book file being added to the library.
type AddBookRequest struct {
	FilePath     string `json:"filePath" validate:"required,notblank"`
	Title        string `json:"title" validate:"required,notblank,max=1024"`
	Authors      string `json:"authors" validate:"max=1024"`
	Creator      string `json:"creator" validate:"max=256"`
	Format       string `json:"format" validate:"max=32"`
	Language     string `json:"language" validate:"max=64"`
	CreationDate string `json:"creationDate" validate:"max=64"`
	DocumentSize string `json:"documentSize" validate:"max=64"`
	PagesSize    string `json:"pagesSize" validate:"max=64"`
	PageCount    int    `json:"pageCount" validate:"gte=0"`
}

func (r AddBookRequest) metadata() domain.Metadata {
	return domain.Metadata{
		Title:        strings.TrimSpace(r.Title),
		Authors:      strings.TrimSpace(r.Authors),
		Creator:      strings.TrimSpace(r.Creator),
		Format:       strings.TrimSpace(r.Format),
		Language:     strings.TrimSpace(r.Language),
		CreationDate: r.CreationDate,
		DocumentSize: r.DocumentSize,
		PagesSize:    r.PagesSize,
		PageCount:    r.PageCount,
	}
}

// tagNameRequest validates a user-supplied tag name.
type tagNameRequest struct {
	Name string `json:"name" validate:"required,notblank,max=64"`
}
