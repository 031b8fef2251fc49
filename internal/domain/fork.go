package domain

import "context"

// ForkResult reports a completed fork.
type ForkResult struct {
	CollectionID string `json:"collection_id"`
	ItemsCount   int    `json:"items_count"`
}

// ForkService duplicates a collection and its items for the acting user.
type ForkService interface {
	Fork(ctx context.Context, collectionID, actorID string) (*ForkResult, error)
}

// ForkStore exposes the repositories a fork writes through. When obtained
// from a ForkTx, all of them share one transaction.
type ForkStore interface {
	Collections() CollectionRepository
	Items() CollectionItemRepository
	Users() UserRepository
	Activities() ActivityRepository
	Notifications() NotificationRepository
}

// ForkTx is one atomic unit of work. Rollback after a successful Commit is a
// no-op, so callers can defer it on every path.
type ForkTx interface {
	ForkStore
	Commit() error
	Rollback() error
}

// UnitOfWork opens transactional fork sessions with explicit commit/abort.
type UnitOfWork interface {
	Begin(ctx context.Context) (ForkTx, error)
}

// Pacer bounds the rate of batch writes during a fork. Wait blocks until the
// next batch may proceed or the context is done.
type Pacer interface {
	Wait(ctx context.Context) error
}
