package store

import (
	"context"
	"fmt"

	"github.com/starford/notas/internal/models"
)

const noteSelect = `
	SELECT n.id, n.title, n.body, n.user_id, n.category_id, c.name, n.is_public, n.created_at, n.updated_at
	FROM notes n
	JOIN categories c ON c.id = n.category_id`

// ListNotes returns the notes owned by ownerID, most recently updated first.
// A categoryID of zero disables the category filter.
func (q *Queries) ListNotes(ctx context.Context, ownerID, categoryID int64) ([]models.Note, error) {
	query := noteSelect + ` WHERE n.user_id = ?`
	args := []any{ownerID}
	if categoryID > 0 {
		query += ` AND n.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY n.updated_at DESC, n.id DESC`

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", translate(err))
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list notes: %w", translate(err))
	}
	return notes, nil
}

// OwnedNote returns note id only if ownerID owns it. Absent and foreign notes
// both yield apperr.ErrNotFound.
func (q *Queries) OwnedNote(ctx context.Context, id, ownerID int64) (models.Note, error) {
	row := q.q.QueryRowContext(ctx, noteSelect+` WHERE n.id = ? AND n.user_id = ?`, id, ownerID)
	n, err := scanNote(row)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: owned note %d: %w", id, translate(err))
	}
	return n, nil
}

// PublicNote returns note id if it is public, with its author's email.
func (q *Queries) PublicNote(ctx context.Context, id int64) (models.PublicNote, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT n.id, n.title, n.body, n.category_id, c.name, u.email, n.is_public, n.created_at, n.updated_at
		FROM notes n
		JOIN categories c ON c.id = n.category_id
		JOIN users u ON u.id = n.user_id
		WHERE n.id = ? AND n.is_public = TRUE`, id)

	var n models.PublicNote
	err := row.Scan(&n.ID, &n.Title, &n.Body, &n.CategoryID, &n.Category, &n.Author, &n.IsPublic, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return models.PublicNote{}, fmt.Errorf("store: public note %d: %w", id, translate(err))
	}
	return n, nil
}

// InsertNote stores n and returns its id. Timestamps on n are ignored.
func (q *Queries) InsertNote(ctx context.Context, n models.Note) (int64, error) {
	ts := now()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO notes (title, body, user_id, category_id, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Title, n.Body, n.OwnerID, n.CategoryID, n.IsPublic, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("store: insert note: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: note id: %w", err)
	}
	return id, nil
}

// UpdateNote overwrites the editable fields of a note owned by n.OwnerID.
func (q *Queries) UpdateNote(ctx context.Context, n models.Note) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE notes SET title = ?, body = ?, category_id = ?, is_public = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		n.Title, n.Body, n.CategoryID, n.IsPublic, now(), n.ID, n.OwnerID)
	if err != nil {
		return fmt.Errorf("store: update note %d: %w", n.ID, translate(err))
	}
	return expectAffected(res, "update note")
}

// SetNoteVisibility sets is_public on a note owned by ownerID.
func (q *Queries) SetNoteVisibility(ctx context.Context, id, ownerID int64, public bool) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE notes SET is_public = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		public, now(), id, ownerID)
	if err != nil {
		return fmt.Errorf("store: set visibility %d: %w", id, translate(err))
	}
	return expectAffected(res, "set visibility")
}

// DeleteNote removes a note owned by ownerID.
func (q *Queries) DeleteNote(ctx context.Context, id, ownerID int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("store: delete note %d: %w", id, translate(err))
	}
	return expectAffected(res, "delete note")
}

func scanNote(s scanner) (models.Note, error) {
	var n models.Note
	err := s.Scan(&n.ID, &n.Title, &n.Body, &n.OwnerID, &n.CategoryID, &n.Category, &n.IsPublic, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}
