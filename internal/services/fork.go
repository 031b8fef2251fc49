package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookmarkly/internal/domain"
)

// Fork copy defaults; both are configurable through NewForkService.
const (
	DefaultForkMaxItems  = 10000
	DefaultForkBatchSize = 100
)

type forkService struct {
	uow            domain.UnitOfWork
	collectionRepo domain.CollectionRepository
	itemRepo       domain.CollectionItemRepository
	perms          domain.PermissionResolver
	pacer          domain.Pacer
	maxItems       int
	batchSize      int
}

// NewForkService creates the fork orchestrator. The collection and item
// repositories are used for the read-only pre-checks; every write goes
// through a transaction opened on the unit of work. maxItems/batchSize fall
// back to the defaults when non-positive; pacer may be nil to disable pacing.
func NewForkService(
	uow domain.UnitOfWork,
	collectionRepo domain.CollectionRepository,
	itemRepo domain.CollectionItemRepository,
	perms domain.PermissionResolver,
	pacer domain.Pacer,
	maxItems, batchSize int,
) domain.ForkService {
	if maxItems <= 0 {
		maxItems = DefaultForkMaxItems
	}
	if batchSize <= 0 {
		batchSize = DefaultForkBatchSize
	}
	return &forkService{
		uow:            uow,
		collectionRepo: collectionRepo,
		itemRepo:       itemRepo,
		perms:          perms,
		pacer:          pacer,
		maxItems:       maxItems,
		batchSize:      batchSize,
	}
}

func (s *forkService) Fork(ctx context.Context, collectionID, actorID string) (*domain.ForkResult, error) {
	source, err := s.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}

	// Private sources require an explicit role; publicness is enough for the
	// rest.
	if !source.IsPublic {
		role, err := s.perms.PermissionFor(ctx, source, actorID)
		if err != nil {
			return nil, fmt.Errorf("resolve permission: %w", err)
		}
		if !role.AtLeast(domain.RoleView) {
			return nil, domain.ErrForbidden
		}
	}

	// Size guard: count without loading, before any write.
	count, err := s.itemRepo.CountByCollectionID(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	if count > s.maxItems {
		return nil, &domain.CapacityExceededError{Count: count, Limit: s.maxItems}
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin fork transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := s.forkInTx(ctx, tx, source, actorID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fork transaction: %w", err)
	}
	return result, nil
}

func (s *forkService) forkInTx(ctx context.Context, tx domain.ForkTx, source *domain.Collection, actorID string) (*domain.ForkResult, error) {
	actor, err := tx.Users().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get actor: %w", err)
	}

	name, err := s.uniqueForkName(ctx, tx, actorID, source.Name)
	if err != nil {
		return nil, fmt.Errorf("derive fork name: %w", err)
	}

	now := time.Now()
	dest := domain.NewCollection(actorID, name, source.Description, false, now, now)
	dest.Category = source.Category
	dest.Tags = source.Tags
	if err := tx.Collections().Create(ctx, dest); err != nil {
		return nil, fmt.Errorf("create fork destination: %w", err)
	}

	copied, err := s.copyItems(ctx, tx, source.ID, dest.ID, actorID)
	if err != nil {
		return nil, fmt.Errorf("copy items: %w", err)
	}

	if err := tx.Activities().Create(ctx, &domain.Activity{
		UserID:       actorID,
		Kind:         domain.ActivityCollectionForked,
		CollectionID: dest.ID,
		Detail:       fmt.Sprintf("forked %q as %q", source.Name, dest.Name),
		CreatedAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	if actorID != source.OwnerID {
		if err := tx.Notifications().Create(ctx, &domain.Notification{
			UserID:       source.OwnerID,
			Kind:         domain.NotificationCollectionForked,
			Message:      fmt.Sprintf("%s forked your collection %q", actor.Name, source.Name),
			CollectionID: source.ID,
			CreatedAt:    now,
		}); err != nil {
			return nil, fmt.Errorf("notify source owner: %w", err)
		}
	}

	if err := tx.Collections().IncrementClickCount(ctx, source.ID); err != nil {
		return nil, fmt.Errorf("increment source clicks: %w", err)
	}

	return &domain.ForkResult{CollectionID: dest.ID, ItemsCount: copied}, nil
}

// uniqueForkName appends " (Copy)" to the source name, then " (Copy N)" with
// increasing N, until the name is free for this owner.
func (s *forkService) uniqueForkName(ctx context.Context, tx domain.ForkTx, ownerID, sourceName string) (string, error) {
	for n := 1; ; n++ {
		candidate := sourceName + " (Copy)"
		if n > 1 {
			candidate = fmt.Sprintf("%s (Copy %d)", sourceName, n)
		}
		taken, err := tx.Collections().ExistsByOwnerAndName(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// copyItems streams source items into the destination in bounded batches.
// Each copy is normalized (favorite off, counters zeroed, added_by set to the
// actor) and each page is one batch write; the pacer bounds load between
// pages without suspending the surrounding transaction.
func (s *forkService) copyItems(ctx context.Context, tx domain.ForkTx, sourceID, destID, actorID string) (int, error) {
	total := 0
	now := time.Now()
	for offset := 0; ; offset += s.batchSize {
		page, err := tx.Items().ListPage(ctx, sourceID, s.batchSize, offset)
		if err != nil {
			return 0, fmt.Errorf("list source items: %w", err)
		}
		if len(page) == 0 {
			break
		}
		copies := make([]*domain.CollectionItem, 0, len(page))
		for _, item := range page {
			copies = append(copies, item.CopyFor(destID, actorID, now))
		}
		inserted, err := tx.Items().CreateBatch(ctx, copies)
		if err != nil {
			return 0, fmt.Errorf("insert item batch: %w", err)
		}
		total += inserted
		if len(page) < s.batchSize {
			break
		}
		if s.pacer != nil {
			if err := s.pacer.Wait(ctx); err != nil {
				return 0, fmt.Errorf("pace item copy: %w", err)
			}
		}
	}
	return total, nil
}
