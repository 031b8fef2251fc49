package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bookmarkly/internal/domain"
)

type collectionItemRepository struct {
	DB querier
}

func NewCollectionItemRepository(db *sql.DB) domain.CollectionItemRepository {
	return &collectionItemRepository{DB: db}
}

func (r *collectionItemRepository) Create(ctx context.Context, item *domain.CollectionItem) error {
	query := `
		INSERT INTO collection_items (collection_id, product_id, added_by, notes, position, is_favorite, access_count, last_accessed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		item.CollectionID, item.ProductID, item.AddedBy, item.Notes, item.Position,
		item.IsFavorite, item.AccessCount, item.LastAccessedAt, item.CreatedAt,
	).Scan(&item.ID)
}

func (r *collectionItemRepository) CountByCollectionID(ctx context.Context, collectionID string) (int, error) {
	query := `SELECT COUNT(*) FROM collection_items WHERE collection_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, collectionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *collectionItemRepository) ListPage(ctx context.Context, collectionID string, limit, offset int) ([]*domain.CollectionItem, error) {
	query := `
		SELECT id, collection_id, product_id, added_by, notes, position, is_favorite, access_count, last_accessed_at, created_at
		FROM collection_items
		WHERE collection_id = $1
		ORDER BY position, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, collectionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]*domain.CollectionItem, 0)
	for rows.Next() {
		item := &domain.CollectionItem{}
		var notesNull sql.NullString
		var lastAccessed sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.CollectionID, &item.ProductID, &item.AddedBy, &notesNull,
			&item.Position, &item.IsFavorite, &item.AccessCount, &lastAccessed, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Notes = notesNull.String
		if lastAccessed.Valid {
			item.LastAccessedAt = &lastAccessed.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateBatch inserts the items as one multi-row INSERT. Rows colliding with
// an existing (collection_id, product_id) pair are dropped by ON CONFLICT DO
// NOTHING; any other failure fails the whole statement. The returned count is
// the number of rows actually inserted.
func (r *collectionItemRepository) CreateBatch(ctx context.Context, items []*domain.CollectionItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	const cols = 9
	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*cols)
	for i, item := range items {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args,
			item.CollectionID, item.ProductID, item.AddedBy, item.Notes, item.Position,
			item.IsFavorite, item.AccessCount, item.LastAccessedAt, item.CreatedAt,
		)
	}
	query := fmt.Sprintf(`
		INSERT INTO collection_items (collection_id, product_id, added_by, notes, position, is_favorite, access_count, last_accessed_at, created_at)
		VALUES %s
		ON CONFLICT (collection_id, product_id) DO NOTHING
	`, strings.Join(placeholders, ", "))
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}
