package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookmarkly/internal/domain"
)

type collectionService struct {
	collectionRepo domain.CollectionRepository
	itemRepo       domain.CollectionItemRepository
	perms          domain.PermissionResolver
}

// NewCollectionService creates a CollectionService with the given repositories.
func NewCollectionService(
	collectionRepo domain.CollectionRepository,
	itemRepo domain.CollectionItemRepository,
	perms domain.PermissionResolver,
) domain.CollectionService {
	return &collectionService{
		collectionRepo: collectionRepo,
		itemRepo:       itemRepo,
		perms:          perms,
	}
}

func (s *collectionService) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if c.OwnerID == "" {
		return fmt.Errorf("collection owner is required")
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.ErrInvalidInput
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()

	if err := s.collectionRepo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *collectionService) GetCollection(ctx context.Context, collectionID, actorID string, params domain.PaginationParams) (*domain.Collection, []*domain.CollectionItem, error) {
	collection, err := s.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get collection: %w", err)
	}
	readable, err := s.perms.CanRead(ctx, collection, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve read permission: %w", err)
	}
	if !readable {
		return nil, nil, domain.ErrForbidden
	}
	items, err := s.itemRepo.ListPage(ctx, collectionID, params.Limit(), params.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []*domain.CollectionItem{}
	}
	return collection, items, nil
}

func (s *collectionService) ListMyCollections(ctx context.Context, actorID string) ([]*domain.Collection, error) {
	collections, err := s.collectionRepo.ListByOwnerID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if collections == nil {
		collections = []*domain.Collection{}
	}
	return collections, nil
}
