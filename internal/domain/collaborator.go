package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyCollaborator is returned when granting a role to a user who already holds one on the collection.
var ErrAlreadyCollaborator = errors.New("already a collaborator")

// Role is an ordered capability level on a collection.
type Role string

// Roles, weakest to strongest. RoleOwner is implied by collection ownership
// and never stored in a collaborator row.
const (
	RoleNone  Role = ""
	RoleView  Role = "view"
	RoleEdit  Role = "edit"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

var roleLevels = map[Role]int{
	RoleNone:  0,
	RoleView:  1,
	RoleEdit:  2,
	RoleAdmin: 3,
	RoleOwner: 4,
}

// AtLeast reports whether r grants at least the capability of other.
func (r Role) AtLeast(other Role) bool {
	return roleLevels[r] >= roleLevels[other]
}

// ParseCollaboratorRole parses a grantable collaborator role (view, edit, admin).
func ParseCollaboratorRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleView, RoleEdit, RoleAdmin:
		return Role(s), true
	}
	return RoleNone, false
}

// Collaborator represents a user holding a standing role on a collection, distinct from ownership.
// swagger:model Collaborator
type Collaborator struct {
	CollectionID string    `json:"collection_id"`
	UserID       string    `json:"user_id"`
	Role         Role      `json:"role"`
	InvitedBy    string    `json:"invited_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// PermissionResolver computes an actor's effective role on a collection.
type PermissionResolver interface {
	// PermissionFor returns owner for the collection owner, the collaborator's
	// role when a grant exists, and none otherwise. Publicness plays no part.
	PermissionFor(ctx context.Context, c *Collection, userID string) (Role, error)
	// CanRead reports whether the actor may read the collection. Public
	// collections are readable by anyone; this implicit grant never extends
	// to mutation or invite management.
	CanRead(ctx context.Context, c *Collection, userID string) (bool, error)
}

// CollaboratorRepository defines the interface for collaborator storage.
type CollaboratorRepository interface {
	// Add creates the grant. Returns ErrAlreadyCollaborator if the (collection, user) pair exists.
	Add(ctx context.Context, c *Collaborator) error
	// Get returns the collaborator row, or ErrNotFound.
	Get(ctx context.Context, collectionID, userID string) (*Collaborator, error)
	ListByCollectionID(ctx context.Context, collectionID string) ([]*Collaborator, error)
	Remove(ctx context.Context, collectionID, userID string) error
}
