package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/id"
)

// Tag is a user-defined label attached to books.
// Identity is the UUID; two tags are equal only if both ID and Name match.
type Tag struct {
	ID   uuid.UUID
	Name string
}

// NewTag creates a tag with a fresh identifier.
func NewTag(name string) Tag {
	return Tag{ID: id.New(), Name: name}
}

// Equal reports whether both tags have the same identifier and name.
func (t Tag) Equal(other Tag) bool {
	return t.ID == other.ID && t.Name == other.Name
}

type tagJSON struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// MarshalJSON encodes the tag as {"uuid": ..., "name": ...}.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagJSON{UUID: t.ID.String(), Name: t.Name})
}

// UnmarshalJSON decodes a tag leniently: missing or mistyped fields become
// zero values and an unparsable uuid becomes a freshly generated one.
func (t *Tag) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decode tag: %w", err)
	}
	t.ID = id.ParseOrNew(stringField(obj, "uuid"))
	t.Name = stringField(obj, "name")
	return nil
}

// TagFromJSON decodes a single tag object.
func TagFromJSON(data []byte) (Tag, error) {
	var t Tag
	if err := t.UnmarshalJSON(data); err != nil {
		return Tag{}, err
	}
	return t, nil
}
