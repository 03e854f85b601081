package services

import (
	"context"
	"errors"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/eventbus"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

type RoleService struct {
	repo        role.Repository
	userRepo    user.Repository
	permissions *PermissionService
	publisher   eventbus.EventBus
}

func NewRoleService(repo role.Repository, userRepo user.Repository, permissions *PermissionService, publisher eventbus.EventBus) *RoleService {
	return &RoleService{
		repo:        repo,
		userRepo:    userRepo,
		permissions: permissions,
		publisher:   publisher,
	}
}

func (s *RoleService) GetByID(ctx context.Context, id uint) (*role.Role, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*role.Role, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *RoleService) GetAll(ctx context.Context) ([]*role.Role, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*role.Role, error) {
		return s.repo.GetAll(txCtx)
	})
}

// CreateAndGrant creates the role and sets its initial grant set in one
// transaction. A normalized-name collision within the tenant fails with
// DuplicateRoleName.
func (s *RoleService) CreateAndGrant(ctx context.Context, data *role.Role, permissionNames []string) (*role.Role, error) {
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*role.Role, error) {
		if _, err := s.repo.GetByNormalizedName(txCtx, data.NormalizedName()); err == nil {
			return nil, serrors.ErrDuplicateRoleName
		} else if !errors.Is(err, serrors.ErrRoleNotFound) {
			return nil, err
		}
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := s.permissions.SetGrantedPermissions(txCtx, created.ID(), permissionNames); err != nil {
			return nil, err
		}
		return s.repo.GetByID(txCtx, created.ID())
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(RoleCreatedEvent{Role: created})
	return created, nil
}

// UpdateAndGrant revokes all grants, updates the role's fields, then applies
// the new grant set. All three steps share one transaction so a failure in
// the grant phase also rolls the field update back and vice versa.
func (s *RoleService) UpdateAndGrant(ctx context.Context, id uint, name, description string, permissionNames []string) (*role.Role, error) {
	updated, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*role.Role, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SetPermissions(txCtx, entity.ID(), nil); err != nil {
			return nil, err
		}
		entity.SetName(name)
		entity.SetDescription(description)
		if _, err := s.repo.Update(txCtx, entity); err != nil {
			return nil, err
		}
		if err := s.permissions.SetGrantedPermissions(txCtx, entity.ID(), permissionNames); err != nil {
			return nil, err
		}
		return s.repo.GetByID(txCtx, entity.ID())
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(RoleUpdatedEvent{Role: updated})
	return updated, nil
}

// DeleteAndDetachUsers removes the role from every user holding it, then
// deletes the role. Any single detach failure aborts the whole operation.
func (s *RoleService) DeleteAndDetachUsers(ctx context.Context, id uint) error {
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		holders, err := s.userRepo.FindByRoleID(txCtx, entity.ID())
		if err != nil {
			return err
		}
		for _, holder := range holders {
			if err := s.userRepo.RemoveRole(txCtx, holder.ID(), entity.ID()); err != nil {
				return err
			}
		}
		return s.repo.Delete(txCtx, entity.ID())
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(RoleDeletedEvent{RoleID: id})
	return nil
}
