package services

import (
	"context"
	"errors"
	"fmt"

	"bookmarkly/internal/domain"
)

type accessResolver struct {
	collaboratorRepo domain.CollaboratorRepository
}

// NewAccessResolver returns the PermissionResolver consulted by every other
// service. Ownership always outranks collaborator roles.
func NewAccessResolver(collaboratorRepo domain.CollaboratorRepository) domain.PermissionResolver {
	return &accessResolver{collaboratorRepo: collaboratorRepo}
}

func (r *accessResolver) PermissionFor(ctx context.Context, c *domain.Collection, userID string) (domain.Role, error) {
	if userID == "" {
		return domain.RoleNone, nil
	}
	if c.OwnerID == userID {
		return domain.RoleOwner, nil
	}
	collab, err := r.collaboratorRepo.Get(ctx, c.ID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, fmt.Errorf("get collaborator: %w", err)
	}
	return collab.Role, nil
}

func (r *accessResolver) CanRead(ctx context.Context, c *domain.Collection, userID string) (bool, error) {
	if c.IsPublic {
		return true, nil
	}
	role, err := r.PermissionFor(ctx, c, userID)
	if err != nil {
		return false, err
	}
	return role.AtLeast(domain.RoleView), nil
}
