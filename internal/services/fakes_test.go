package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"bookmarkly/internal/domain"
)

// fakeStore is the in-memory state shared by the fake repositories. The fake
// unit of work clones it per transaction so commit/rollback behave like the
// real thing.
type fakeStore struct {
	collections   map[string]*domain.Collection
	items         map[string][]*domain.CollectionItem
	users         map[string]*domain.User
	activities    []*domain.Activity
	notifications []*domain.Notification
	nextID        int

	itemBatchErr error // if set, CreateBatch fails with it
	activityErr  error // if set, Activities().Create fails with it
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: make(map[string]*domain.Collection),
		items:       make(map[string][]*domain.CollectionItem),
		users:       make(map[string]*domain.User),
		nextID:      1,
	}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = s.nextID
	c.itemBatchErr = s.itemBatchErr
	c.activityErr = s.activityErr
	for id, col := range s.collections {
		copied := *col
		c.collections[id] = &copied
	}
	for id, items := range s.items {
		c.items[id] = append([]*domain.CollectionItem(nil), items...)
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	c.activities = append([]*domain.Activity(nil), s.activities...)
	c.notifications = append([]*domain.Notification(nil), s.notifications...)
	return c
}

func (s *fakeStore) addUser(id, email, name string) *domain.User {
	u := &domain.User{ID: id, Email: email, Name: name}
	s.users[id] = u
	return u
}

func (s *fakeStore) addCollection(ownerID, name string, isPublic bool) *domain.Collection {
	c := &domain.Collection{
		ID:       fmt.Sprintf("col-%d", s.nextID),
		OwnerID:  ownerID,
		Name:     name,
		IsPublic: isPublic,
	}
	s.nextID++
	s.collections[c.ID] = c
	return c
}

func (s *fakeStore) addItems(collectionID string, n int) {
	for i := 0; i < n; i++ {
		s.items[collectionID] = append(s.items[collectionID], &domain.CollectionItem{
			ID:           fmt.Sprintf("it-%s-%d", collectionID, i),
			CollectionID: collectionID,
			ProductID:    fmt.Sprintf("p-%d", i),
			AddedBy:      "seed",
			Position:     i,
			IsFavorite:   i%2 == 0,
			AccessCount:  i,
		})
	}
}

// fakeCollectionRepo implements domain.CollectionRepository over a fakeStore.
type fakeCollectionRepo struct {
	s *fakeStore
}

func (f *fakeCollectionRepo) Create(ctx context.Context, c *domain.Collection) error {
	for _, existing := range f.s.collections {
		if existing.OwnerID == c.OwnerID && existing.Name == c.Name {
			return domain.ErrDuplicateName
		}
	}
	c.ID = fmt.Sprintf("col-%d", f.s.nextID)
	f.s.nextID++
	f.s.collections[c.ID] = c
	return nil
}

func (f *fakeCollectionRepo) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	if c, ok := f.s.collections[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCollectionRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Collection, error) {
	var out []*domain.Collection
	for _, c := range f.s.collections {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCollectionRepo) ExistsByOwnerAndName(ctx context.Context, ownerID, name string) (bool, error) {
	for _, c := range f.s.collections {
		if c.OwnerID == ownerID && c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCollectionRepo) IncrementClickCount(ctx context.Context, id string) error {
	c, ok := f.s.collections[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.ClickCount++
	return nil
}

func (f *fakeCollectionRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.s.collections[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.s.collections, id)
	return nil
}

// fakeItemRepo implements domain.CollectionItemRepository over a fakeStore.
type fakeItemRepo struct {
	s *fakeStore
}

func (f *fakeItemRepo) Create(ctx context.Context, item *domain.CollectionItem) error {
	item.ID = fmt.Sprintf("it-%d", f.s.nextID)
	f.s.nextID++
	f.s.items[item.CollectionID] = append(f.s.items[item.CollectionID], item)
	return nil
}

func (f *fakeItemRepo) CountByCollectionID(ctx context.Context, collectionID string) (int, error) {
	return len(f.s.items[collectionID]), nil
}

func (f *fakeItemRepo) ListPage(ctx context.Context, collectionID string, limit, offset int) ([]*domain.CollectionItem, error) {
	all := f.s.items[collectionID]
	if offset >= len(all) {
		return []*domain.CollectionItem{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]*domain.CollectionItem(nil), all[offset:end]...), nil
}

func (f *fakeItemRepo) CreateBatch(ctx context.Context, items []*domain.CollectionItem) (int, error) {
	if f.s.itemBatchErr != nil {
		return 0, f.s.itemBatchErr
	}
	inserted := 0
	for _, item := range items {
		conflict := false
		for _, existing := range f.s.items[item.CollectionID] {
			if existing.ProductID == item.ProductID {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		item.ID = fmt.Sprintf("it-%d", f.s.nextID)
		f.s.nextID++
		f.s.items[item.CollectionID] = append(f.s.items[item.CollectionID], item)
		inserted++
	}
	return inserted, nil
}

// fakeUserRepo implements domain.UserRepository over a fakeStore.
type fakeUserRepo struct {
	s *fakeStore
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range f.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.s.nextID)
	f.s.nextID++
	f.s.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// fakeActivityRepo implements domain.ActivityRepository over a fakeStore.
type fakeActivityRepo struct {
	s *fakeStore
}

func (f *fakeActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	if f.s.activityErr != nil {
		return f.s.activityErr
	}
	a.ID = fmt.Sprintf("act-%d", f.s.nextID)
	f.s.nextID++
	f.s.activities = append(f.s.activities, a)
	return nil
}

// fakeNotificationRepo implements domain.NotificationRepository over a fakeStore.
type fakeNotificationRepo struct {
	s *fakeStore
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	n.ID = fmt.Sprintf("ntf-%d", f.s.nextID)
	f.s.nextID++
	f.s.notifications = append(f.s.notifications, n)
	return nil
}

// fakeUnitOfWork clones the store on Begin; Commit swaps the clone in,
// Rollback discards it.
type fakeUnitOfWork struct {
	base   *fakeStore
	begins int
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) (domain.ForkTx, error) {
	u.begins++
	return &fakeForkTx{base: u.base, work: u.base.clone()}, nil
}

type fakeForkTx struct {
	base      *fakeStore
	work      *fakeStore
	committed bool
}

func (t *fakeForkTx) Collections() domain.CollectionRepository {
	return &fakeCollectionRepo{s: t.work}
}

func (t *fakeForkTx) Items() domain.CollectionItemRepository {
	return &fakeItemRepo{s: t.work}
}

func (t *fakeForkTx) Users() domain.UserRepository {
	return &fakeUserRepo{s: t.work}
}

func (t *fakeForkTx) Activities() domain.ActivityRepository {
	return &fakeActivityRepo{s: t.work}
}

func (t *fakeForkTx) Notifications() domain.NotificationRepository {
	return &fakeNotificationRepo{s: t.work}
}

func (t *fakeForkTx) Commit() error {
	*t.base = *t.work
	t.committed = true
	return nil
}

func (t *fakeForkTx) Rollback() error {
	if t.committed {
		return sql.ErrTxDone
	}
	return nil
}

// fakeCollaboratorRepo is an in-memory CollaboratorRepository.
type fakeCollaboratorRepo struct {
	byKey map[string]*domain.Collaborator
}

func newFakeCollaboratorRepo() *fakeCollaboratorRepo {
	return &fakeCollaboratorRepo{byKey: make(map[string]*domain.Collaborator)}
}

func collabKey(collectionID, userID string) string {
	return collectionID + "|" + userID
}

func (f *fakeCollaboratorRepo) Add(ctx context.Context, c *domain.Collaborator) error {
	key := collabKey(c.CollectionID, c.UserID)
	if _, ok := f.byKey[key]; ok {
		return domain.ErrAlreadyCollaborator
	}
	f.byKey[key] = c
	return nil
}

func (f *fakeCollaboratorRepo) Get(ctx context.Context, collectionID, userID string) (*domain.Collaborator, error) {
	if c, ok := f.byKey[collabKey(collectionID, userID)]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCollaboratorRepo) ListByCollectionID(ctx context.Context, collectionID string) ([]*domain.Collaborator, error) {
	var out []*domain.Collaborator
	for _, c := range f.byKey {
		if c.CollectionID == collectionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCollaboratorRepo) Remove(ctx context.Context, collectionID, userID string) error {
	key := collabKey(collectionID, userID)
	if _, ok := f.byKey[key]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byKey, key)
	return nil
}

// fakeInviteRepo is an in-memory InviteRepository with the same conditional
// transition semantics as the postgres one.
type fakeInviteRepo struct {
	byID   map[string]*domain.CollectionInvite
	nextID int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{byID: make(map[string]*domain.CollectionInvite), nextID: 1}
}

func (f *fakeInviteRepo) Create(ctx context.Context, inv *domain.CollectionInvite) error {
	for _, existing := range f.byID {
		if existing.Token == inv.Token {
			return domain.ErrDuplicateToken
		}
	}
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	f.byID[inv.ID] = inv
	return nil
}

func (f *fakeInviteRepo) GetByID(ctx context.Context, id string) (*domain.CollectionInvite, error) {
	if inv, ok := f.byID[id]; ok {
		return inv, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) GetByToken(ctx context.Context, token string) (*domain.CollectionInvite, error) {
	for _, inv := range f.byID {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) HasPendingByEmail(ctx context.Context, collectionID, email string, now time.Time) (bool, error) {
	for _, inv := range f.byID {
		if inv.CollectionID == collectionID && strings.EqualFold(inv.Email, email) &&
			inv.Status == domain.InvitePending && inv.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInviteRepo) TransitionStatus(ctx context.Context, id string, from, to domain.InviteStatus) error {
	inv, ok := f.byID[id]
	if !ok || inv.Status != from {
		return domain.ErrInviteNotPending
	}
	inv.Status = to
	inv.UpdatedAt = time.Now()
	return nil
}

func (f *fakeInviteRepo) Reissue(ctx context.Context, id, token string, expiresAt time.Time) error {
	inv, ok := f.byID[id]
	if !ok || (inv.Status != domain.InvitePending && inv.Status != domain.InviteExpired) {
		return domain.ErrInviteNotPending
	}
	inv.Token = token
	inv.ExpiresAt = expiresAt
	inv.Status = domain.InvitePending
	inv.UpdatedAt = time.Now()
	return nil
}

func (f *fakeInviteRepo) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for _, inv := range f.byID {
		if inv.Status == domain.InvitePending && inv.ExpiresAt.Before(now) {
			inv.Status = domain.InviteExpired
			count++
		}
	}
	return count, nil
}

func (f *fakeInviteRepo) ListByCollectionID(ctx context.Context, collectionID string, params domain.PaginationParams) ([]*domain.CollectionInvite, int, error) {
	var all []*domain.CollectionInvite
	for _, inv := range f.byID {
		if inv.CollectionID == collectionID {
			all = append(all, inv)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	offset := params.Offset()
	if offset >= total {
		return []*domain.CollectionInvite{}, total, nil
	}
	end := offset + params.Limit()
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// fakeEmailService records invite emails instead of sending them.
type fakeEmailService struct {
	invites   []*domain.InviteEmailData
	decisions []*domain.InviteDecisionEmailData
	err       error
}

func (f *fakeEmailService) SendInvite(ctx context.Context, data *domain.InviteEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.invites = append(f.invites, data)
	return nil
}

func (f *fakeEmailService) SendInviteDecision(ctx context.Context, data *domain.InviteDecisionEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.decisions = append(f.decisions, data)
	return nil
}

// countingPacer records how many times the copier paused between batches.
type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return nil
}
