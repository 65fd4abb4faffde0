package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
	"github.com/librumreader/librum-core/internal/id"
	"github.com/librumreader/librum-core/internal/store"
	"github.com/librumreader/librum-core/internal/util"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, slug, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a store.TagRecord.
func scanTag(scanner interface{ Scan(dest ...any) error }, extra ...any) (*store.TagRecord, error) {
	var (
		r         store.TagRecord
		rawID     string
		createdAt string
	)

	dest := append([]any{&rawID, &r.Name, &r.Slug, &createdAt}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse tag id %q: %w", rawID, err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanDomainTag(scanner interface{ Scan(dest ...any) error }) (domain.Tag, error) {
	var rawID, name string
	if err := scanner.Scan(&rawID, &name); err != nil {
		return domain.Tag{}, fmt.Errorf("scan tag: %w", err)
	}
	tagID, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("parse tag id %q: %w", rawID, err)
	}
	return domain.Tag{ID: tagID, Name: name}, nil
}

// CreateTag inserts a new tag. The slug is derived from the name.
// Returns an ALREADY_EXISTS error when another tag has the same slug.
func (s *Store) CreateTag(ctx context.Context, tag domain.Tag) (*store.TagRecord, error) {
	slug := util.NormalizeTagSlug(tag.Name)
	if slug == "" {
		return nil, errors.Validationf("tag name %q has no usable characters", tag.Name)
	}

	r := &store.TagRecord{
		ID:        tag.ID,
		Name:      tag.Name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, slug, created_at)
		VALUES (?, ?, ?, ?)`,
		r.ID.String(),
		r.Name,
		r.Slug,
		formatTime(r.CreatedAt),
	)
	if isUniqueViolation(err) {
		return nil, errors.AlreadyExistsf("tag %q already exists", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return r, nil
}

// GetTag retrieves a tag by its ID.
// Returns a NOT_FOUND error if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, tagID uuid.UUID) (*store.TagRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID.String())

	r, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("tag %s not found", tagID)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetTagBySlug retrieves a tag by its slug.
// Returns a NOT_FOUND error if the tag does not exist.
func (s *Store) GetTagBySlug(ctx context.Context, slug string) (*store.TagRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE slug = ?`, slug)

	r, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("tag %q not found", slug)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListTags returns all tags ordered by slug, with the number of books
// carrying each.
func (s *Store) ListTags(ctx context.Context) ([]*store.TagRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at, COUNT(bt.book_id)
		FROM tags t
		LEFT JOIN book_tags bt ON bt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*store.TagRecord{}
	for rows.Next() {
		var count int
		r, err := scanTag(rows, &count)
		if err != nil {
			return nil, err
		}
		r.BookCount = count
		tags = append(tags, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

// FindOrCreateTag finds a tag whose slug matches name or creates one.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, name string) (*store.TagRecord, bool, error) {
	slug := util.NormalizeTagSlug(name)
	if slug == "" {
		return nil, false, errors.Validationf("tag name %q has no usable characters", name)
	}

	existing, err := s.GetTagBySlug(ctx, slug)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	r, err := s.CreateTag(ctx, domain.Tag{ID: id.New(), Name: name})
	if errors.Is(err, errors.ErrAlreadyExists) {
		// Race: another caller created it.
		existing, err := s.GetTagBySlug(ctx, slug)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// RenameTag changes a tag's name and slug.
// Returns NOT_FOUND for an unknown tag and ALREADY_EXISTS when the new slug
// belongs to another tag.
func (s *Store) RenameTag(ctx context.Context, tagID uuid.UUID, name string) (*store.TagRecord, error) {
	slug := util.NormalizeTagSlug(name)
	if slug == "" {
		return nil, errors.Validationf("tag name %q has no usable characters", name)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, slug = ? WHERE id = ?`, name, slug, tagID.String())
	if isUniqueViolation(err) {
		return nil, errors.AlreadyExistsf("tag %q already exists", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.NotFoundf("tag %s not found", tagID)
	}

	return s.GetTag(ctx, tagID)
}

// DeleteTag removes a tag and, through the foreign key, its book associations.
// Book documents still list the tag until they are saved again; reads
// reconcile tags from the association table.
func (s *Store) DeleteTag(ctx context.Context, tagID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID.String())
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFoundf("tag %s not found", tagID)
	}
	return nil
}

// ensureTag makes the tags table agree with a tag carried by a saved book.
// Unknown tags are inserted; a known tag whose name differs is renamed, so
// the saved book's tag names win. A slug already owned by a different tag
// gets the tag's ID prefix appended.
func ensureTag(ctx context.Context, tx *sql.Tx, tag domain.Tag) error {
	var storedName string
	err := tx.QueryRowContext(ctx,
		`SELECT name FROM tags WHERE id = ?`, tag.ID.String()).Scan(&storedName)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("lookup tag: %w", err)
	}
	known := err == nil
	if known && storedName == tag.Name {
		return nil
	}

	slug, err := uniqueSlug(ctx, tx, tag)
	if err != nil {
		return err
	}

	if known {
		_, err = tx.ExecContext(ctx,
			`UPDATE tags SET name = ?, slug = ? WHERE id = ?`, tag.Name, slug, tag.ID.String())
		if err != nil {
			return fmt.Errorf("rename tag: %w", err)
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (id, name, slug, created_at)
		VALUES (?, ?, ?, ?)`,
		tag.ID.String(),
		tag.Name,
		slug,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

// uniqueSlug returns the slug for tag's name, suffixed when another tag owns
// it. A name without usable characters falls back to the tag ID.
func uniqueSlug(ctx context.Context, tx *sql.Tx, tag domain.Tag) (string, error) {
	slug := util.NormalizeTagSlug(tag.Name)
	if slug == "" {
		return tag.ID.String(), nil
	}

	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM tags WHERE slug = ? AND id != ?`, slug, tag.ID.String()).Scan(&exists)
	switch {
	case err == nil:
		return slug + "-" + tag.ID.String()[:8], nil
	case err == sql.ErrNoRows:
		return slug, nil
	default:
		return "", fmt.Errorf("lookup tag slug: %w", err)
	}
}
