package domain

import (
	"context"
	"time"
)

// Activity kinds written by this core.
const (
	ActivityCollectionForked = "collection_forked"
)

// Notification kinds written by this core.
const (
	NotificationCollectionForked = "collection_forked"
	NotificationInviteReceived   = "invite_received"
	NotificationInviteAccepted   = "invite_accepted"
	NotificationInviteDeclined   = "invite_declined"
)

// Activity is an append-only audit record of a user action.
// swagger:model Activity
type Activity struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	CollectionID string    `json:"collection_id"`
	Detail       string    `json:"detail"`
	CreatedAt    time.Time `json:"created_at"`
}

// Notification is an append-only user-facing side-effect record.
// swagger:model Notification
type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	CollectionID string    `json:"collection_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActivityRepository defines append-only storage for audit records.
type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
}

// NotificationRepository defines append-only storage for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
}
