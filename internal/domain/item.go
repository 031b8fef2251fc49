package domain

import (
	"context"
	"time"
)

// CollectionItem represents a single bookmarked product inside a collection.
// swagger:model CollectionItem
type CollectionItem struct {
	ID             string     `json:"id"`
	CollectionID   string     `json:"collection_id"`
	ProductID      string     `json:"product_id"`
	AddedBy        string     `json:"added_by"`
	Notes          string     `json:"notes"`
	Position       int        `json:"position"`
	IsFavorite     bool       `json:"is_favorite"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewCollectionItem returns a new CollectionItem with the given fields. ID is typically set by the repository on create.
func NewCollectionItem(collectionID, productID, addedBy, notes string, position int, createdAt time.Time) *CollectionItem {
	return &CollectionItem{
		CollectionID: collectionID,
		ProductID:    productID,
		AddedBy:      addedBy,
		Notes:        notes,
		Position:     position,
		CreatedAt:    createdAt,
	}
}

// CopyFor returns the forked copy of the item for the destination collection.
// Favorite flag and access counters are reset; notes and position carry over.
func (i *CollectionItem) CopyFor(destCollectionID, actorID string, now time.Time) *CollectionItem {
	return &CollectionItem{
		CollectionID: destCollectionID,
		ProductID:    i.ProductID,
		AddedBy:      actorID,
		Notes:        i.Notes,
		Position:     i.Position,
		CreatedAt:    now,
	}
}

// CollectionItemRepository defines the interface for collection item storage.
type CollectionItemRepository interface {
	Create(ctx context.Context, item *CollectionItem) error
	// CountByCollectionID counts items without loading them.
	CountByCollectionID(ctx context.Context, collectionID string) (int, error)
	// ListPage returns one page of items in stable insertion order (position, then id).
	ListPage(ctx context.Context, collectionID string, limit, offset int) ([]*CollectionItem, error)
	// CreateBatch inserts the items as one batch write. Rows that collide with an
	// existing (collection_id, product_id) pair are skipped; every other row
	// failure fails the whole batch. Returns the number of rows actually inserted.
	CreateBatch(ctx context.Context, items []*CollectionItem) (int, error)
}
