package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"bookmarkly/internal/domain"
)

// Unique constraints on collection_invites, used to tell a token collision
// apart from a duplicate pending invite.
const (
	inviteTokenConstraint   = "collection_invites_token_key"
	invitePendingConstraint = "collection_invites_pending_email_idx"
)

type inviteRepository struct {
	DB querier
}

func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{DB: db}
}

const inviteColumns = `id, collection_id, inviter_id, email, role, token, status, message, invitee_id, expires_at, created_at, updated_at`

func (r *inviteRepository) Create(ctx context.Context, inv *domain.CollectionInvite) error {
	query := `
		INSERT INTO collection_invites (collection_id, inviter_id, email, role, token, status, message, invitee_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.CollectionID, inv.InviterID, inv.Email, string(inv.Role), inv.Token,
		string(inv.Status), inv.Message, inv.InviteeID, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == inviteTokenConstraint {
				return domain.ErrDuplicateToken
			}
			return domain.ErrDuplicateInvite
		}
		return err
	}
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.CollectionInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM collection_invites WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.CollectionInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM collection_invites WHERE token = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, token))
}

func (r *inviteRepository) scanOne(row *sql.Row) (*domain.CollectionInvite, error) {
	inv := &domain.CollectionInvite{}
	var role, status string
	var messageNull sql.NullString
	var inviteeNull sql.NullString
	err := row.Scan(
		&inv.ID, &inv.CollectionID, &inv.InviterID, &inv.Email, &role, &inv.Token,
		&status, &messageNull, &inviteeNull, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InviteStatus(status)
	inv.Message = messageNull.String
	if inviteeNull.Valid {
		inv.InviteeID = &inviteeNull.String
	}
	return inv, nil
}

func (r *inviteRepository) HasPendingByEmail(ctx context.Context, collectionID, email string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM collection_invites
			WHERE collection_id = $1 AND email = $2 AND status = 'pending' AND expires_at > $3
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, collectionID, email, now).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// TransitionStatus is the single conditional update guarding every invite
// state change. A zero rows-affected result means another writer moved the
// invite first; the caller loses the race.
func (r *inviteRepository) TransitionStatus(ctx context.Context, id string, from, to domain.InviteStatus) error {
	query := `
		UPDATE collection_invites
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.DB.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInviteNotPending
	}
	return nil
}

func (r *inviteRepository) Reissue(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := `
		UPDATE collection_invites
		SET token = $1, expires_at = $2, status = 'pending', updated_at = NOW()
		WHERE id = $3 AND status IN ('pending', 'expired')
	`
	result, err := r.DB.ExecContext(ctx, query, token, expiresAt, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrDuplicateToken
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInviteNotPending
	}
	return nil
}

func (r *inviteRepository) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE collection_invites
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1
	`
	result, err := r.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func (r *inviteRepository) ListByCollectionID(ctx context.Context, collectionID string, params domain.PaginationParams) ([]*domain.CollectionInvite, int, error) {
	countQuery := `SELECT COUNT(*) FROM collection_invites WHERE collection_id = $1`
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, collectionID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + inviteColumns + `
		FROM collection_invites
		WHERE collection_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, collectionID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	invites := make([]*domain.CollectionInvite, 0)
	for rows.Next() {
		inv := &domain.CollectionInvite{}
		var role, status string
		var messageNull, inviteeNull sql.NullString
		if err := rows.Scan(
			&inv.ID, &inv.CollectionID, &inv.InviterID, &inv.Email, &role, &inv.Token,
			&status, &messageNull, &inviteeNull, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		inv.Role = domain.Role(role)
		inv.Status = domain.InviteStatus(status)
		inv.Message = messageNull.String
		if inviteeNull.Valid {
			inv.InviteeID = &inviteeNull.String
		}
		invites = append(invites, inv)
	}
	return invites, total, rows.Err()
}
