package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bookmarkly/internal/domain"
)

type collectionRepository struct {
	DB querier
}

func NewCollectionRepository(db *sql.DB) domain.CollectionRepository {
	return &collectionRepository{DB: db}
}

func (r *collectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	query := `
		INSERT INTO collections (owner_id, name, description, is_public, view_count, click_count, category, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		c.OwnerID, c.Name, c.Description, c.IsPublic, c.ViewCount, c.ClickCount,
		c.Category, pq.Array(c.Tags), c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	query := `
		SELECT id, owner_id, name, description, is_public, view_count, click_count, category, tags, created_at, updated_at
		FROM collections
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *collectionRepository) scanOne(row *sql.Row) (*domain.Collection, error) {
	c := &domain.Collection{}
	var descNull, categoryNull sql.NullString
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &descNull, &c.IsPublic,
		&c.ViewCount, &c.ClickCount, &categoryNull, pq.Array(&c.Tags),
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.Description = descNull.String
	c.Category = categoryNull.String
	return c, nil
}

func (r *collectionRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Collection, error) {
	query := `
		SELECT id, owner_id, name, description, is_public, view_count, click_count, category, tags, created_at, updated_at
		FROM collections
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	collections := make([]*domain.Collection, 0)
	for rows.Next() {
		c := &domain.Collection{}
		var descNull, categoryNull sql.NullString
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Name, &descNull, &c.IsPublic,
			&c.ViewCount, &c.ClickCount, &categoryNull, pq.Array(&c.Tags),
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		c.Description = descNull.String
		c.Category = categoryNull.String
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (r *collectionRepository) ExistsByOwnerAndName(ctx context.Context, ownerID, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM collections WHERE owner_id = $1 AND name = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, ownerID, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *collectionRepository) IncrementClickCount(ctx context.Context, id string) error {
	query := `UPDATE collections SET click_count = click_count + 1 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *collectionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM collections WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
