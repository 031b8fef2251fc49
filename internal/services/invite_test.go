package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmarkly/internal/domain"
)

type inviteFixture struct {
	store      *fakeStore
	invites    *fakeInviteRepo
	collabs    *fakeCollaboratorRepo
	email      *fakeEmailService
	svc        domain.InviteService
	owner      *domain.User
	invitee    *domain.User
	collection *domain.Collection
}

func newInviteFixture() *inviteFixture {
	store := newFakeStore()
	owner := store.addUser("owner-1", "owner@example.com", "Olive Owner")
	invitee := store.addUser("user-2", "friend@example.com", "Frida Friend")
	collection := store.addCollection("owner-1", "Reading List", false)

	invites := newFakeInviteRepo()
	collabs := newFakeCollaboratorRepo()
	email := &fakeEmailService{}
	perms := NewAccessResolver(collabs)
	svc := NewInviteService(
		invites, collabs, &fakeCollectionRepo{s: store}, &fakeUserRepo{s: store},
		&fakeNotificationRepo{s: store}, email, perms, "https://app.example.com/",
	)
	return &inviteFixture{
		store: store, invites: invites, collabs: collabs, email: email,
		svc: svc, owner: owner, invitee: invitee, collection: collection,
	}
}

// seedInvite plants an invite directly in the repo with a controlled status
// and expiry.
func (f *inviteFixture) seedInvite(email string, status domain.InviteStatus, expiresAt time.Time) *domain.CollectionInvite {
	now := time.Now()
	inv := domain.NewCollectionInvite(f.collection.ID, f.owner.ID, email, domain.RoleEdit, "tok-"+email+string(status), "", expiresAt, now)
	_ = f.invites.Create(context.Background(), inv)
	inv.Status = status
	return inv
}

func TestInviteService_CreateInvite(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, "Friend@Example.com", domain.RoleEdit, "join me")
	require.NoError(t, err)

	assert.Equal(t, "friend@example.com", inv.Email, "email normalized")
	assert.Equal(t, domain.InvitePending, inv.Status)
	assert.Equal(t, domain.RoleEdit, inv.Role)
	assert.Len(t, inv.Token, 64)
	assert.WithinDuration(t, time.Now().Add(domain.InviteTTL), inv.ExpiresAt, time.Minute)
	require.NotNil(t, inv.InviteeID)
	assert.Equal(t, f.invitee.ID, *inv.InviteeID)

	// Known invitee gets an in-app notification and the invite email.
	require.Len(t, f.store.notifications, 1)
	assert.Equal(t, f.invitee.ID, f.store.notifications[0].UserID)
	assert.Equal(t, domain.NotificationInviteReceived, f.store.notifications[0].Kind)
	require.Len(t, f.email.invites, 1)
	assert.Equal(t, "https://app.example.com/invites/token/"+inv.Token, f.email.invites[0].InviteURL)
	assert.Equal(t, "Olive Owner", f.email.invites[0].InviterName)
}

func TestInviteService_CreateInvite_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, "stranger@example.com", domain.RoleView, "")
	require.NoError(t, err)
	assert.Nil(t, inv.InviteeID)
	assert.Empty(t, f.store.notifications, "no in-app notification for unknown emails")
	assert.Len(t, f.email.invites, 1, "email still goes out")
}

func TestInviteService_CreateInvite_Validation(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	_, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, "not-an-email", domain.RoleView, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, "a@example.com", domain.Role("owner"), "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInviteService_CreateInvite_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	_, err := f.svc.CreateInvite(ctx, f.collection.ID, "user-2", "a@example.com", domain.RoleView, "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// A view collaborator still cannot invite.
	require.NoError(t, f.collabs.Add(ctx, &domain.Collaborator{
		CollectionID: f.collection.ID, UserID: "user-2", Role: domain.RoleView, InvitedBy: f.owner.ID,
	}))
	_, err = f.svc.CreateInvite(ctx, f.collection.ID, "user-2", "a@example.com", domain.RoleView, "")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInviteService_CreateInvite_Conflicts(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	// Existing collaborator.
	require.NoError(t, f.collabs.Add(ctx, &domain.Collaborator{
		CollectionID: f.collection.ID, UserID: f.invitee.ID, Role: domain.RoleEdit, InvitedBy: f.owner.ID,
	}))
	_, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.ErrorIs(t, err, domain.ErrAlreadyCollaborator)

	// Duplicate pending invite for an unaffiliated email.
	_, err = f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, "new@example.com", domain.RoleView, "")
	require.NoError(t, err)
	_, err = f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, "new@example.com", domain.RoleEdit, "")
	require.ErrorIs(t, err, domain.ErrDuplicateInvite)
}

func TestInviteService_GetInviteByToken(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	pending := f.seedInvite("friend@example.com", domain.InvitePending, time.Now().Add(time.Hour))
	got, err := f.svc.GetInviteByToken(ctx, pending.Token)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	_, err = f.svc.GetInviteByToken(ctx, "no-such-token")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInviteService_GetInviteByToken_ExpiresLazily(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	overdue := f.seedInvite("friend@example.com", domain.InvitePending, time.Now().Add(-time.Hour))
	_, err := f.svc.GetInviteByToken(ctx, overdue.Token)
	require.ErrorIs(t, err, domain.ErrInviteExpired)
	assert.Equal(t, domain.InviteExpired, f.invites.byID[overdue.ID].Status, "lookup flips the overdue invite")

	// Accepted invites are invisible through their token.
	accepted := f.seedInvite("other@example.com", domain.InviteAccepted, time.Now().Add(time.Hour))
	_, err = f.svc.GetInviteByToken(ctx, accepted.Token)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInviteService_AcceptInvite(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleEdit, "")
	require.NoError(t, err)

	got, err := f.svc.AcceptInvite(ctx, inv.Token, f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteAccepted, got.Status)

	collab, err := f.collabs.Get(ctx, f.collection.ID, f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEdit, collab.Role)
	assert.Equal(t, f.owner.ID, collab.InvitedBy)

	// Inviter hears about the decision, in-app and by email.
	var decisionSeen bool
	for _, n := range f.store.notifications {
		if n.Kind == domain.NotificationInviteAccepted && n.UserID == f.owner.ID {
			decisionSeen = true
		}
	}
	assert.True(t, decisionSeen)
	require.Len(t, f.email.decisions, 1)
	assert.True(t, f.email.decisions[0].Accepted)
}

func TestInviteService_AcceptInvite_WrongUser(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()
	f.store.addUser("user-3", "imposter@example.com", "Iris Imposter")

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, inv.Token, "user-3")
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.collabs.Get(ctx, f.collection.ID, "user-3")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInviteService_AcceptInvite_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleEdit, "")
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, inv.Token, f.invitee.ID)
	require.NoError(t, err)
	got, err := f.svc.AcceptInvite(ctx, inv.Token, f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteAccepted, got.Status)
	assert.Len(t, f.collabs.byKey, 1, "no duplicate collaborator")
}

func TestInviteService_AcceptInvite_Expired(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	overdue := f.seedInvite(f.invitee.Email, domain.InvitePending, time.Now().Add(-time.Minute))
	_, err := f.svc.AcceptInvite(ctx, overdue.Token, f.invitee.ID)
	require.ErrorIs(t, err, domain.ErrInviteExpired)
	_, err = f.collabs.Get(ctx, f.collection.ID, f.invitee.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInviteService_DeclineInvite(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.NoError(t, err)

	got, err := f.svc.DeclineInvite(ctx, inv.Token, f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteDeclined, got.Status)

	_, err = f.collabs.Get(ctx, f.collection.ID, f.invitee.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Len(t, f.email.decisions, 1)
	assert.False(t, f.email.decisions[0].Accepted)

	// A declined invite cannot be declined (or accepted) again.
	_, err = f.svc.DeclineInvite(ctx, inv.Token, f.invitee.ID)
	require.ErrorIs(t, err, domain.ErrInviteNotPending)
}

func TestInviteService_CancelInvite(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.NoError(t, err)

	// Only the inviter may cancel, whatever the status.
	err = f.svc.CancelInvite(ctx, inv.ID, f.invitee.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.CancelInvite(ctx, inv.ID, f.owner.ID))
	assert.Equal(t, domain.InviteExpired, f.invites.byID[inv.ID].Status)

	// Cancelled invites are no longer pending.
	err = f.svc.CancelInvite(ctx, inv.ID, f.owner.ID)
	require.ErrorIs(t, err, domain.ErrInviteNotPending)
}

func TestInviteService_ResendInvite(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.NoError(t, err)
	oldToken := inv.Token

	got, err := f.svc.ResendInvite(ctx, inv.ID, f.owner.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, got.Token)
	assert.Equal(t, domain.InvitePending, got.Status)
	assert.Len(t, f.email.invites, 2, "resend sends the email again")

	// The old token no longer resolves.
	_, err = f.svc.GetInviteByToken(ctx, oldToken)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInviteService_ResendInvite_Rules(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.NoError(t, err)

	// Strangers cannot resend.
	_, err = f.svc.ResendInvite(ctx, inv.ID, "user-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	// An admin collaborator who is not the inviter can.
	f.store.addUser("user-4", "admin@example.com", "Ada Admin")
	require.NoError(t, f.collabs.Add(ctx, &domain.Collaborator{
		CollectionID: f.collection.ID, UserID: "user-4", Role: domain.RoleAdmin, InvitedBy: f.owner.ID,
	}))
	_, err = f.svc.ResendInvite(ctx, inv.ID, "user-4")
	require.NoError(t, err)

	// Resolved invites stay resolved.
	_, err = f.svc.AcceptInvite(ctx, f.invites.byID[inv.ID].Token, f.invitee.ID)
	require.NoError(t, err)
	_, err = f.svc.ResendInvite(ctx, inv.ID, f.owner.ID)
	require.ErrorIs(t, err, domain.ErrInviteNotPending)
}

func TestInviteService_ResendRevivesExpired(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	expired := f.seedInvite(f.invitee.Email, domain.InviteExpired, time.Now().Add(-time.Hour))
	got, err := f.svc.ResendInvite(ctx, expired.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitePending, got.Status)
	assert.True(t, got.ExpiresAt.After(time.Now()))
}

func TestInviteService_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	f.seedInvite("a@example.com", domain.InvitePending, time.Now().Add(-time.Hour))
	f.seedInvite("b@example.com", domain.InvitePending, time.Now().Add(-time.Minute))
	f.seedInvite("c@example.com", domain.InvitePending, time.Now().Add(time.Hour))

	n, err := f.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The sweep is idempotent.
	n, err = f.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInviteService_ListInvites(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	f.seedInvite("a@example.com", domain.InvitePending, time.Now().Add(time.Hour))
	f.seedInvite("b@example.com", domain.InviteDeclined, time.Now().Add(time.Hour))

	_, _, err := f.svc.ListInvites(ctx, f.collection.ID, f.invitee.ID, domain.PaginationParams{Page: 1, PageSize: 20})
	require.ErrorIs(t, err, domain.ErrForbidden)

	list, total, err := f.svc.ListInvites(ctx, f.collection.ID, f.owner.ID, domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)
}

// Accepting a view invite grants read access but never the right to invite
// others.
func TestInviteService_AcceptedViewerCannotInvite(t *testing.T) {
	ctx := context.Background()
	f := newInviteFixture()

	inv, err := f.svc.CreateInvite(ctx, f.collection.ID, f.owner.ID, f.invitee.Email, domain.RoleView, "")
	require.NoError(t, err)
	_, err = f.svc.AcceptInvite(ctx, inv.Token, f.invitee.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateInvite(ctx, f.collection.ID, f.invitee.ID, "third@example.com", domain.RoleView, "")
	require.ErrorIs(t, err, domain.ErrForbidden)
}
