package postgres

import (
	"context"
	"database/sql"

	"bookmarkly/internal/domain"
)

// unitOfWork opens fork transactions over a *sql.DB.
type unitOfWork struct {
	DB *sql.DB
}

// NewUnitOfWork returns a domain.UnitOfWork backed by database/sql transactions.
func NewUnitOfWork(db *sql.DB) domain.UnitOfWork {
	return &unitOfWork{DB: db}
}

func (u *unitOfWork) Begin(ctx context.Context) (domain.ForkTx, error) {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &forkTx{tx: tx}, nil
}

// forkTx binds every repository to one sql.Tx so all fork writes share a
// single all-or-nothing scope.
type forkTx struct {
	tx *sql.Tx
}

func (t *forkTx) Collections() domain.CollectionRepository {
	return &collectionRepository{DB: t.tx}
}

func (t *forkTx) Items() domain.CollectionItemRepository {
	return &collectionItemRepository{DB: t.tx}
}

func (t *forkTx) Users() domain.UserRepository {
	return &userRepository{DB: t.tx}
}

func (t *forkTx) Activities() domain.ActivityRepository {
	return &activityRepository{DB: t.tx}
}

func (t *forkTx) Notifications() domain.NotificationRepository {
	return &notificationRepository{DB: t.tx}
}

func (t *forkTx) Commit() error {
	return t.tx.Commit()
}

// Rollback releases the transaction. After a successful Commit it returns
// sql.ErrTxDone, which callers deferring Rollback ignore.
func (t *forkTx) Rollback() error {
	return t.tx.Rollback()
}
