package postgres

import (
	"context"
	"database/sql"

	"bookmarkly/internal/domain"
)

type activityRepository struct {
	DB querier
}

func NewActivityRepository(db *sql.DB) domain.ActivityRepository {
	return &activityRepository{DB: db}
}

func (r *activityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `
		INSERT INTO activities (user_id, kind, collection_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, a.UserID, a.Kind, a.CollectionID, a.Detail, a.CreatedAt).
		Scan(&a.ID)
}

type notificationRepository struct {
	DB querier
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, kind, message, collection_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, n.UserID, n.Kind, n.Message, n.CollectionID, n.CreatedAt).
		Scan(&n.ID)
}
