package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateName is returned when a collection name is already taken by the same owner.
var ErrDuplicateName = errors.New("collection name already in use")

// Collection represents a user-curated set of bookmarked items.
// swagger:model Collection
type Collection struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	ViewCount   int       `json:"view_count"`
	ClickCount  int       `json:"click_count"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCollection returns a new Collection with the given fields. ID is typically set by the repository on create.
func NewCollection(ownerID, name, description string, isPublic bool, createdAt, updatedAt time.Time) *Collection {
	return &Collection{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		IsPublic:    isPublic,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// CollectionRepository defines the interface for collection storage
type CollectionRepository interface {
	Create(ctx context.Context, c *Collection) error
	GetByID(ctx context.Context, id string) (*Collection, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Collection, error)
	// ExistsByOwnerAndName reports whether the owner already has a collection with this name.
	ExistsByOwnerAndName(ctx context.Context, ownerID, name string) (bool, error)
	// IncrementClickCount adds one to the collection's click counter.
	IncrementClickCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CollectionService defines the business logic for collection management.
type CollectionService interface {
	CreateCollection(ctx context.Context, c *Collection) error
	GetCollection(ctx context.Context, collectionID, actorID string, params PaginationParams) (*Collection, []*CollectionItem, error)
	ListMyCollections(ctx context.Context, actorID string) ([]*Collection, error)
}
