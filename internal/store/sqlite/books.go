package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/librumreader/librum-core/internal/domain"
	"github.com/librumreader/librum-core/internal/errors"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, downloaded, document`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Book. Tags are attached by the caller.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		bookID     string
		downloaded int
		document   string
	)
	if err := scanner.Scan(&bookID, &downloaded, &document); err != nil {
		return nil, err
	}

	book, err := domain.FromJSON([]byte(document))
	if err != nil {
		return nil, fmt.Errorf("decode book %s: %w", bookID, err)
	}
	book.Downloaded = downloaded != 0

	return book, nil
}

// SaveBook inserts or replaces a book and its tag associations in a single
// transaction. Tags unknown to the store are created on the way. The cover
// BlurHash is kept across saves.
func (s *Store) SaveBook(ctx context.Context, book *domain.Book) error {
	document, err := book.ToJSON()
	if err != nil {
		return fmt.Errorf("encode book: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	bookID := book.ID().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, file_path, title, authors, downloaded, last_modified, document)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			title = excluded.title,
			authors = excluded.authors,
			downloaded = excluded.downloaded,
			last_modified = excluded.last_modified,
			document = excluded.document`,
		bookID,
		book.FilePath,
		book.Title,
		book.Authors,
		boolToInt(book.Downloaded),
		formatTime(book.LastModified),
		string(document),
	)
	if err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_tags WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete book_tags: %w", err)
	}

	for position, tag := range book.Tags() {
		if err := ensureTag(ctx, tx, tag); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO book_tags (book_id, tag_id, position)
			VALUES (?, ?, ?)`,
			bookID,
			tag.ID.String(),
			position,
		)
		if err != nil {
			return fmt.Errorf("insert book_tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetBook retrieves a book by its ID.
// Returns a NOT_FOUND error if the book does not exist.
func (s *Store) GetBook(ctx context.Context, bookID uuid.UUID) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, bookID.String())

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("book %s not found", bookID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBookByPath retrieves the book backed by the given file.
// Returns a NOT_FOUND error if no book has that path.
func (s *Store) GetBookByPath(ctx context.Context, path string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE file_path = ? LIMIT 1`, path)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("no book at %s", path)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// ListBooks returns every book ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagsByBook, err := s.allBookTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		replaceTags(b, tagsByBook[b.ID()])
	}

	return books, nil
}

// DeleteBook removes a book and its tag associations.
// Returns a NOT_FOUND error if the book does not exist.
func (s *Store) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, bookID.String())
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFoundf("book %s not found", bookID)
	}
	return nil
}

// BookIDsWithTag returns the IDs of every book carrying the tag.
func (s *Store) BookIDsWithTag(ctx context.Context, tagID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id FROM book_tags WHERE tag_id = ? ORDER BY book_id`, tagID.String())
	if err != nil {
		return nil, fmt.Errorf("query book_tags: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan book_tag: %w", err)
		}
		bookID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse book id %q: %w", raw, err)
		}
		ids = append(ids, bookID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// SetCoverBlurHash stores the placeholder hash of a book's cover.
// An empty hash clears it.
func (s *Store) SetCoverBlurHash(ctx context.Context, bookID uuid.UUID, hash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET cover_blurhash = ? WHERE id = ?`, nullString(hash), bookID.String())
	if err != nil {
		return fmt.Errorf("update cover_blurhash: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFoundf("book %s not found", bookID)
	}
	return nil
}

// CoverBlurHash returns the stored cover hash, or "" if none was computed.
func (s *Store) CoverBlurHash(ctx context.Context, bookID uuid.UUID) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT cover_blurhash FROM books WHERE id = ?`, bookID.String()).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", errors.NotFoundf("book %s not found", bookID)
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

// attachTags replaces the book's tags with the stored associations, so tag
// renames and deletions made through the store are reflected.
func (s *Store) attachTags(ctx context.Context, book *domain.Book) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM book_tags bt
		JOIN tags t ON t.id = bt.tag_id
		WHERE bt.book_id = ?
		ORDER BY bt.position`, book.ID().String())
	if err != nil {
		return fmt.Errorf("query book tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		tag, err := scanDomainTag(rows)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}

	replaceTags(book, tags)
	return nil
}

func (s *Store) allBookTags(ctx context.Context) (map[uuid.UUID][]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bt.book_id, t.id, t.name
		FROM book_tags bt
		JOIN tags t ON t.id = bt.tag_id
		ORDER BY bt.book_id, bt.position`)
	if err != nil {
		return nil, fmt.Errorf("query book tags: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]domain.Tag)
	for rows.Next() {
		var rawBookID, rawTagID, name string
		if err := rows.Scan(&rawBookID, &rawTagID, &name); err != nil {
			return nil, fmt.Errorf("scan book tag: %w", err)
		}
		bookID, err := uuid.Parse(rawBookID)
		if err != nil {
			return nil, fmt.Errorf("parse book id %q: %w", rawBookID, err)
		}
		tagID, err := uuid.Parse(rawTagID)
		if err != nil {
			return nil, fmt.Errorf("parse tag id %q: %w", rawTagID, err)
		}
		result[bookID] = append(result[bookID], domain.Tag{ID: tagID, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

func replaceTags(book *domain.Book, tags []domain.Tag) {
	for _, t := range book.Tags() {
		book.RemoveTag(t.ID)
	}
	for _, t := range tags {
		book.AddTag(t)
	}
}
