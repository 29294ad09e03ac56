package store

import (
	"context"
	"fmt"

	"github.com/starford/notas/internal/models"
)

// CategoryExists reports whether category id is present.
func (q *Queries) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: category exists: %w", translate(err))
	}
	return n > 0, nil
}

// CategoryByName looks a category up by exact name.
func (q *Queries) CategoryByName(ctx context.Context, name string) (models.Category, error) {
	var c models.Category
	err := q.q.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE name = ?`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return models.Category{}, fmt.Errorf("store: category %q: %w", name, translate(err))
	}
	return c, nil
}

// ListCategories returns every category ordered by name. NoteCount counts the
// viewer's own notes, or public notes when viewerID is zero.
func (q *Queries) ListCategories(ctx context.Context, viewerID int64) ([]models.Category, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(n.id)
		FROM categories c
		LEFT JOIN notes n ON n.category_id = c.id
			AND ((? > 0 AND n.user_id = ?) OR (? = 0 AND n.is_public = TRUE))
		GROUP BY c.id, c.name
		ORDER BY c.name`, viewerID, viewerID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", translate(err))
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.NoteCount); err != nil {
			return nil, fmt.Errorf("store: scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list categories: %w", translate(err))
	}
	return categories, nil
}
