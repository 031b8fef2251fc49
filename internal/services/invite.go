package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bookmarkly/internal/domain"
)

var inviteEmailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// tokenCreateAttempts bounds regeneration on a token unique-constraint collision.
const tokenCreateAttempts = 3

type inviteService struct {
	inviteRepo       domain.InviteRepository
	collaboratorRepo domain.CollaboratorRepository
	collectionRepo   domain.CollectionRepository
	userRepo         domain.UserRepository
	notificationRepo domain.NotificationRepository
	emailService     domain.EmailService
	perms            domain.PermissionResolver
	appBaseURL       string
}

// NewInviteService creates the invite ledger.
func NewInviteService(
	inviteRepo domain.InviteRepository,
	collaboratorRepo domain.CollaboratorRepository,
	collectionRepo domain.CollectionRepository,
	userRepo domain.UserRepository,
	notificationRepo domain.NotificationRepository,
	emailService domain.EmailService,
	perms domain.PermissionResolver,
	appBaseURL string,
) domain.InviteService {
	return &inviteService{
		inviteRepo:       inviteRepo,
		collaboratorRepo: collaboratorRepo,
		collectionRepo:   collectionRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		emailService:     emailService,
		perms:            perms,
		appBaseURL:       strings.TrimSuffix(appBaseURL, "/"),
	}
}

// generateInviteToken returns a 64-char hex bearer token from crypto/rand.
func generateInviteToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *inviteService) CreateInvite(ctx context.Context, collectionID, inviterID, email string, role domain.Role, message string) (*domain.CollectionInvite, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !inviteEmailRegexp.MatchString(email) {
		return nil, domain.ErrInvalidInput
	}
	if _, ok := domain.ParseCollaboratorRole(string(role)); !ok {
		return nil, domain.ErrInvalidInput
	}

	collection, err := s.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	inviterRole, err := s.perms.PermissionFor(ctx, collection, inviterID)
	if err != nil {
		return nil, fmt.Errorf("resolve permission: %w", err)
	}
	if !inviterRole.AtLeast(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	// Resolve the invitee up front so an existing grant fails fast and a
	// known user can be notified in-app.
	var invitee *domain.User
	if u, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		invitee = u
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if invitee != nil {
		if _, err := s.collaboratorRepo.Get(ctx, collectionID, invitee.ID); err == nil {
			return nil, domain.ErrAlreadyCollaborator
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get collaborator: %w", err)
		}
	}

	now := time.Now()
	pending, err := s.inviteRepo.HasPendingByEmail(ctx, collectionID, email, now)
	if err != nil {
		return nil, fmt.Errorf("check pending invite: %w", err)
	}
	if pending {
		return nil, domain.ErrDuplicateInvite
	}

	var inv *domain.CollectionInvite
	for attempt := 0; attempt < tokenCreateAttempts; attempt++ {
		token, err := generateInviteToken()
		if err != nil {
			return nil, err
		}
		inv = domain.NewCollectionInvite(collectionID, inviterID, email, role, token, message, now.Add(domain.InviteTTL), now)
		if invitee != nil {
			inv.InviteeID = &invitee.ID
		}
		err = s.inviteRepo.Create(ctx, inv)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateToken) {
			inv = nil
			continue
		}
		if errors.Is(err, domain.ErrDuplicateInvite) {
			return nil, domain.ErrDuplicateInvite
		}
		return nil, fmt.Errorf("create invite: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("create invite: token collision persisted after %d attempts", tokenCreateAttempts)
	}

	if invitee != nil {
		if err := s.notificationRepo.Create(ctx, &domain.Notification{
			UserID:       invitee.ID,
			Kind:         domain.NotificationInviteReceived,
			Message:      fmt.Sprintf("You were invited to collaborate on %q", collection.Name),
			CollectionID: collection.ID,
			CreatedAt:    now,
		}); err != nil {
			return nil, fmt.Errorf("notify invitee: %w", err)
		}
	}

	s.sendInviteEmail(ctx, collection, inv)
	return inv, nil
}

// sendInviteEmail delivers the invite link. Delivery failure does not fail
// the invite; resend reissues it.
func (s *inviteService) sendInviteEmail(ctx context.Context, collection *domain.Collection, inv *domain.CollectionInvite) {
	inviterName := inv.InviterID
	if inviter, err := s.userRepo.GetByID(ctx, inv.InviterID); err == nil && inviter.Name != "" {
		inviterName = inviter.Name
	}
	_ = s.emailService.SendInvite(ctx, &domain.InviteEmailData{
		Email:          inv.Email,
		InviterName:    inviterName,
		CollectionName: collection.Name,
		Role:           string(inv.Role),
		Message:        inv.Message,
		InviteURL:      fmt.Sprintf("%s/invites/token/%s", s.appBaseURL, inv.Token),
		ExpiresInDays:  int(domain.InviteTTL.Hours() / 24),
	})
}

func (s *inviteService) GetInviteByID(ctx context.Context, id string) (*domain.CollectionInvite, error) {
	inv, err := s.inviteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

// GetInviteByToken only ever surfaces pending invites. A pending invite past
// its expiry is flipped to expired as a side effect and reported as such.
func (s *inviteService) GetInviteByToken(ctx context.Context, token string) (*domain.CollectionInvite, error) {
	inv, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	switch inv.Status {
	case domain.InvitePending:
		if time.Now().After(inv.ExpiresAt) {
			if err := s.expirePending(ctx, inv); err != nil {
				return nil, err
			}
			return nil, domain.ErrInviteExpired
		}
		return inv, nil
	case domain.InviteExpired:
		return nil, domain.ErrInviteExpired
	default:
		// Accepted/declined invites are invisible through their token.
		return nil, domain.ErrNotFound
	}
}

// expirePending flips a pending invite to expired, tolerating a concurrent
// transition (the sweep or another reader may have won).
func (s *inviteService) expirePending(ctx context.Context, inv *domain.CollectionInvite) error {
	err := s.inviteRepo.TransitionStatus(ctx, inv.ID, domain.InvitePending, domain.InviteExpired)
	if err != nil && !errors.Is(err, domain.ErrInviteNotPending) {
		return fmt.Errorf("expire invite: %w", err)
	}
	inv.Status = domain.InviteExpired
	return nil
}

func (s *inviteService) AcceptInvite(ctx context.Context, token, actorID string) (*domain.CollectionInvite, error) {
	inv, actor, err := s.resolveForDecision(ctx, token, actorID)
	if err != nil {
		return nil, err
	}

	// Idempotent path: the actor already holds a role on the collection.
	if _, err := s.collaboratorRepo.Get(ctx, inv.CollectionID, actorID); err == nil {
		if inv.Status == domain.InvitePending {
			if err := s.inviteRepo.TransitionStatus(ctx, inv.ID, domain.InvitePending, domain.InviteAccepted); err == nil {
				inv.Status = domain.InviteAccepted
			} else if !errors.Is(err, domain.ErrInviteNotPending) {
				return nil, fmt.Errorf("mark invite accepted: %w", err)
			}
		}
		return inv, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get collaborator: %w", err)
	}

	if err := s.requirePendingUnexpired(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.inviteRepo.TransitionStatus(ctx, inv.ID, domain.InvitePending, domain.InviteAccepted); err != nil {
		if errors.Is(err, domain.ErrInviteNotPending) {
			return nil, domain.ErrInviteNotPending
		}
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	inv.Status = domain.InviteAccepted

	err = s.collaboratorRepo.Add(ctx, &domain.Collaborator{
		CollectionID: inv.CollectionID,
		UserID:       actorID,
		Role:         inv.Role,
		InvitedBy:    inv.InviterID,
		CreatedAt:    time.Now(),
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyCollaborator) {
		return nil, fmt.Errorf("add collaborator: %w", err)
	}

	s.notifyDecision(ctx, inv, actor, true)
	return inv, nil
}

func (s *inviteService) DeclineInvite(ctx context.Context, token, actorID string) (*domain.CollectionInvite, error) {
	inv, actor, err := s.resolveForDecision(ctx, token, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePendingUnexpired(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.inviteRepo.TransitionStatus(ctx, inv.ID, domain.InvitePending, domain.InviteDeclined); err != nil {
		if errors.Is(err, domain.ErrInviteNotPending) {
			return nil, domain.ErrInviteNotPending
		}
		return nil, fmt.Errorf("decline invite: %w", err)
	}
	inv.Status = domain.InviteDeclined

	s.notifyDecision(ctx, inv, actor, false)
	return inv, nil
}

// resolveForDecision loads the invite and enforces the identity rule:
// only the invited email's owner may accept or decline.
func (s *inviteService) resolveForDecision(ctx context.Context, token, actorID string) (*domain.CollectionInvite, *domain.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("get actor: %w", err)
	}
	inv, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get invite by token: %w", err)
	}
	if !strings.EqualFold(actor.Email, inv.Email) {
		return nil, nil, domain.ErrForbidden
	}
	return inv, actor, nil
}

func (s *inviteService) requirePendingUnexpired(ctx context.Context, inv *domain.CollectionInvite) error {
	switch inv.Status {
	case domain.InvitePending:
		if time.Now().After(inv.ExpiresAt) {
			if err := s.expirePending(ctx, inv); err != nil {
				return err
			}
			return domain.ErrInviteExpired
		}
		return nil
	case domain.InviteExpired:
		return domain.ErrInviteExpired
	default:
		return domain.ErrInviteNotPending
	}
}

func (s *inviteService) notifyDecision(ctx context.Context, inv *domain.CollectionInvite, actor *domain.User, accepted bool) {
	kind := domain.NotificationInviteDeclined
	verb := "declined"
	if accepted {
		kind = domain.NotificationInviteAccepted
		verb = "accepted"
	}
	collectionName := inv.CollectionID
	if c, err := s.collectionRepo.GetByID(ctx, inv.CollectionID); err == nil {
		collectionName = c.Name
	}
	_ = s.notificationRepo.Create(ctx, &domain.Notification{
		UserID:       inv.InviterID,
		Kind:         kind,
		Message:      fmt.Sprintf("%s %s your invite to %q", actor.Email, verb, collectionName),
		CollectionID: inv.CollectionID,
		CreatedAt:    time.Now(),
	})
	if inviter, err := s.userRepo.GetByID(ctx, inv.InviterID); err == nil {
		_ = s.emailService.SendInviteDecision(ctx, &domain.InviteDecisionEmailData{
			Email:          inviter.Email,
			InviteeEmail:   actor.Email,
			CollectionName: collectionName,
			Accepted:       accepted,
		})
	}
}

// CancelInvite lets only the original inviter cancel, and only while pending.
func (s *inviteService) CancelInvite(ctx context.Context, id, actorID string) error {
	inv, err := s.inviteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invite: %w", err)
	}
	if inv.InviterID != actorID {
		return domain.ErrForbidden
	}
	if inv.Status != domain.InvitePending {
		return domain.ErrInviteNotPending
	}
	if err := s.inviteRepo.TransitionStatus(ctx, id, domain.InvitePending, domain.InviteExpired); err != nil {
		if errors.Is(err, domain.ErrInviteNotPending) {
			return domain.ErrInviteNotPending
		}
		return fmt.Errorf("cancel invite: %w", err)
	}
	return nil
}

// ResendInvite issues a new token and expiry and resets the invite to
// pending. The inviter and anyone with admin-or-better permission may resend;
// accepted/declined invites are done and stay done.
func (s *inviteService) ResendInvite(ctx context.Context, id, actorID string) (*domain.CollectionInvite, error) {
	inv, err := s.inviteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	collection, err := s.collectionRepo.GetByID(ctx, inv.CollectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	if inv.InviterID != actorID {
		role, err := s.perms.PermissionFor(ctx, collection, actorID)
		if err != nil {
			return nil, fmt.Errorf("resolve permission: %w", err)
		}
		if !role.AtLeast(domain.RoleAdmin) {
			return nil, domain.ErrForbidden
		}
	}
	if inv.Status != domain.InvitePending && inv.Status != domain.InviteExpired {
		return nil, domain.ErrInviteNotPending
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(domain.InviteTTL)
	if err := s.inviteRepo.Reissue(ctx, id, token, expiresAt); err != nil {
		if errors.Is(err, domain.ErrInviteNotPending) {
			return nil, domain.ErrInviteNotPending
		}
		return nil, fmt.Errorf("reissue invite: %w", err)
	}
	inv.Token = token
	inv.ExpiresAt = expiresAt
	inv.Status = domain.InvitePending

	s.sendInviteEmail(ctx, collection, inv)
	return inv, nil
}

// CleanupExpired bulk-expires overdue pending invites. Running it twice in a
// row transitions zero rows the second time.
func (s *inviteService) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.inviteRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("expire overdue invites: %w", err)
	}
	return n, nil
}

func (s *inviteService) ListInvites(ctx context.Context, collectionID, actorID string, params domain.PaginationParams) ([]*domain.CollectionInvite, int, error) {
	collection, err := s.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get collection: %w", err)
	}
	role, err := s.perms.PermissionFor(ctx, collection, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve permission: %w", err)
	}
	if !role.AtLeast(domain.RoleAdmin) {
		return nil, 0, domain.ErrForbidden
	}
	invites, total, err := s.inviteRepo.ListByCollectionID(ctx, collectionID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list invites: %w", err)
	}
	if invites == nil {
		invites = []*domain.CollectionInvite{}
	}
	return invites, total, nil
}
