package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for invite lifecycle transitions.
var (
	// ErrDuplicateInvite is returned when a pending, unexpired invite already
	// exists for the same (collection, email) pair.
	ErrDuplicateInvite = errors.New("a pending invite already exists for this email")

	// ErrInviteExpired is returned when the invite's expiry has passed or the
	// invite was cancelled.
	ErrInviteExpired = errors.New("invite has expired")

	// ErrInviteNotPending is returned when a transition requires pending status
	// and another caller already moved the invite out of it.
	ErrInviteNotPending = errors.New("invite is no longer pending")
)

// InviteStatus is the lifecycle state of a collection invite.
// Pending is the only non-terminal state; accepted and declined are terminal;
// expired is reachable only from pending.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

// InviteTTL is how long a newly issued (or resent) invite stays valid.
const InviteTTL = 7 * 24 * time.Hour

// CollectionInvite represents a time-bounded, single-use offer of a
// collaborator role, identified by a bearer token.
// swagger:model CollectionInvite
type CollectionInvite struct {
	ID           string       `json:"id"`
	CollectionID string       `json:"collection_id"`
	InviterID    string       `json:"inviter_id"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Token        string       `json:"-"`
	Status       InviteStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	InviteeID    *string      `json:"invitee_id,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewCollectionInvite returns a pending invite with the given fields. ID is typically set by the repository on create.
func NewCollectionInvite(collectionID, inviterID, email string, role Role, token, message string, expiresAt, now time.Time) *CollectionInvite {
	return &CollectionInvite{
		CollectionID: collectionID,
		InviterID:    inviterID,
		Email:        email,
		Role:         role,
		Token:        token,
		Status:       InvitePending,
		Message:      message,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// InviteRepository defines the interface for invite storage.
//
// Every status transition is a single conditional update guarded by the
// current status; implementations return ErrInviteNotPending (mapped from a
// zero rows-affected result) when another writer got there first.
type InviteRepository interface {
	// Create inserts the invite. Returns ErrDuplicateInvite when a pending
	// invite for the (collection, email) pair exists, and ErrDuplicateToken
	// when the generated token collides.
	Create(ctx context.Context, inv *CollectionInvite) error
	GetByID(ctx context.Context, id string) (*CollectionInvite, error)
	// GetByToken returns the invite regardless of status; callers enforce
	// pending-only visibility for token lookups.
	GetByToken(ctx context.Context, token string) (*CollectionInvite, error)
	// HasPendingByEmail reports whether a pending, unexpired invite exists
	// for the (collection, email) pair.
	HasPendingByEmail(ctx context.Context, collectionID, email string, now time.Time) (bool, error)
	// TransitionStatus flips the invite from one status to another, returning
	// ErrInviteNotPending when the invite is no longer in from-status.
	TransitionStatus(ctx context.Context, id string, from, to InviteStatus) error
	// Reissue sets a new token and expiry and resets status to pending, only
	// while the invite is pending or expired.
	Reissue(ctx context.Context, id, token string, expiresAt time.Time) error
	// ExpireOverdue bulk-transitions every pending invite whose expiry has
	// passed and returns the number of rows transitioned.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	ListByCollectionID(ctx context.Context, collectionID string, params PaginationParams) ([]*CollectionInvite, int, error)
}

// ErrDuplicateToken is returned on an invite token unique-constraint collision.
var ErrDuplicateToken = errors.New("invite token already exists")

// InviteService defines the invite ledger business logic.
type InviteService interface {
	CreateInvite(ctx context.Context, collectionID, inviterID, email string, role Role, message string) (*CollectionInvite, error)
	GetInviteByID(ctx context.Context, id string) (*CollectionInvite, error)
	GetInviteByToken(ctx context.Context, token string) (*CollectionInvite, error)
	AcceptInvite(ctx context.Context, token, actorID string) (*CollectionInvite, error)
	DeclineInvite(ctx context.Context, token, actorID string) (*CollectionInvite, error)
	CancelInvite(ctx context.Context, id, actorID string) error
	ResendInvite(ctx context.Context, id, actorID string) (*CollectionInvite, error)
	CleanupExpired(ctx context.Context) (int, error)
	ListInvites(ctx context.Context, collectionID, actorID string, params PaginationParams) ([]*CollectionInvite, int, error)
}
