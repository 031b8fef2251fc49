package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bookmarkly/internal/domain"
)

type collaboratorRepository struct {
	DB querier
}

func NewCollaboratorRepository(db *sql.DB) domain.CollaboratorRepository {
	return &collaboratorRepository{DB: db}
}

func (r *collaboratorRepository) Add(ctx context.Context, c *domain.Collaborator) error {
	query := `
		INSERT INTO collaborators (collection_id, user_id, role, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, c.CollectionID, c.UserID, string(c.Role), c.InvitedBy, c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyCollaborator
		}
		return err
	}
	return nil
}

func (r *collaboratorRepository) Get(ctx context.Context, collectionID, userID string) (*domain.Collaborator, error) {
	query := `
		SELECT collection_id, user_id, role, invited_by, created_at
		FROM collaborators
		WHERE collection_id = $1 AND user_id = $2
	`
	c := &domain.Collaborator{}
	var role string
	err := r.DB.QueryRowContext(ctx, query, collectionID, userID).
		Scan(&c.CollectionID, &c.UserID, &role, &c.InvitedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.Role = domain.Role(role)
	return c, nil
}

func (r *collaboratorRepository) ListByCollectionID(ctx context.Context, collectionID string) ([]*domain.Collaborator, error) {
	query := `
		SELECT collection_id, user_id, role, invited_by, created_at
		FROM collaborators
		WHERE collection_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	collaborators := make([]*domain.Collaborator, 0)
	for rows.Next() {
		c := &domain.Collaborator{}
		var role string
		if err := rows.Scan(&c.CollectionID, &c.UserID, &role, &c.InvitedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Role = domain.Role(role)
		collaborators = append(collaborators, c)
	}
	return collaborators, rows.Err()
}

func (r *collaboratorRepository) Remove(ctx context.Context, collectionID, userID string) error {
	query := `DELETE FROM collaborators WHERE collection_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, collectionID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
