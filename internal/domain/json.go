package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"time"
)

// DateTimeLayout is the one layout used for every timestamp in the book JSON
// document. It has millisecond precision and a literal "Z"; values are always
// written and read as UTC. An unset timestamp is written as "".
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

// ErrNotAnObject is returned when a JSON document is not an object.
var ErrNotAnObject = errors.New("json document is not an object")

// bookJSON fixes the key order of the persisted document.
type bookJSON struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Authors        string `json:"authors"`
	Creator        string `json:"creator"`
	PageCount      int    `json:"pageCount"`
	CurrentPage    int    `json:"currentPage"`
	CreationDate   string `json:"creationDate"`
	Format         string `json:"format"`
	Language       string `json:"language"`
	DocumentSize   string `json:"documentSize"`
	PagesSize      string `json:"pagesSize"`
	AddedToLibrary string `json:"addedToLibrary"`
	LastOpened     string `json:"lastOpened"`
	LastModified   string `json:"lastModified"`
	FilePath       string `json:"filePath"`
	Cover          string `json:"cover"`
	Tags           []Tag  `json:"tags"`
}

// ToJSON returns the book as an indented UTF-8 JSON document.
func (b *Book) ToJSON() ([]byte, error) {
	return json.MarshalIndent(b.document(), "", "    ")
}

// MarshalJSON implements json.Marshaler with the same schema as ToJSON.
func (b *Book) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.document())
}

func (b *Book) document() bookJSON {
	tags := b.tags
	if tags == nil {
		tags = []Tag{}
	}
	return bookJSON{
		UUID:           b.id.String(),
		Title:          b.Title,
		Authors:        b.Authors,
		Creator:        b.Creator,
		PageCount:      b.PageCount,
		CurrentPage:    b.CurrentPage,
		CreationDate:   b.CreationDate,
		Format:         b.Format,
		Language:       b.Language,
		DocumentSize:   b.DocumentSize,
		PagesSize:      b.PagesSize,
		AddedToLibrary: FormatDateTime(b.AddedToLibrary),
		LastOpened:     FormatDateTime(b.LastOpened),
		LastModified:   FormatDateTime(b.LastModified),
		FilePath:       b.FilePath,
		Cover:          b.CoverAsString(),
		Tags:           tags,
	}
}

// FromJSON builds a book from a JSON document produced by ToJSON.
//
// Decoding is lenient: missing or mistyped fields take their zero value,
// undecodable covers are dropped and duplicate tags are skipped. The only
// error is a document that is not a JSON object.
func FromJSON(data []byte) (*Book, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	metadata := Metadata{
		Title:          stringField(obj, "title"),
		Authors:        stringField(obj, "authors"),
		Creator:        stringField(obj, "creator"),
		CreationDate:   stringField(obj, "creationDate"),
		Format:         stringField(obj, "format"),
		Language:       stringField(obj, "language"),
		DocumentSize:   stringField(obj, "documentSize"),
		PagesSize:      stringField(obj, "pagesSize"),
		PageCount:      intField(obj, "pageCount"),
		AddedToLibrary: ParseDateTime(stringField(obj, "addedToLibrary")),
		LastModified:   ParseDateTime(stringField(obj, "lastModified")),
		LastOpened:     ParseDateTime(stringField(obj, "lastOpened")),
		Cover:          decodeCover(stringField(obj, "cover")),
	}

	book := NewBook(
		stringField(obj, "filePath"),
		metadata,
		intField(obj, "currentPage"),
		stringField(obj, "uuid"),
	)

	var rawTags []json.RawMessage
	if raw, ok := obj["tags"]; ok {
		_ = json.Unmarshal(raw, &rawTags)
	}
	for _, raw := range rawTags {
		tag, err := TagFromJSON(raw)
		if err != nil {
			continue
		}
		book.AddTag(tag)
	}

	return book, nil
}

// UnmarshalJSON implements json.Unmarshaler using FromJSON. Downloaded is not
// part of the document and is left unchanged.
func (b *Book) UnmarshalJSON(data []byte) error {
	decoded, err := FromJSON(data)
	if err != nil {
		return err
	}
	downloaded := b.Downloaded
	*b = *decoded
	b.Downloaded = downloaded
	return nil
}

// FormatDateTime formats t in UTC with DateTimeLayout, or "" for the zero time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}

// ParseDateTime parses s with DateTimeLayout and forces the result to UTC.
// Invalid input yields the zero time.
func ParseDateTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func decodeCover(encoded string) image.Image {
	if encoded == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	if obj == nil {
		return nil, ErrNotAnObject
	}
	return obj, nil
}

func stringField(obj map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := obj[key]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
	}
	return s
}

// intField accepts any JSON number and truncates it toward zero.
func intField(obj map[string]json.RawMessage, key string) int {
	var f float64
	if raw, ok := obj[key]; ok {
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}
