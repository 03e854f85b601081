package services

import (
	"context"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/modules/core/infrastructure/persistence"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/eventbus"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

// maxCodeAssignRetries bounds re-runs of a create that lost the sibling-code
// race to a concurrent insert under the same parent.
const maxCodeAssignRetries = 3

type OrgUnitService struct {
	repo      orgunit.Repository
	roleRepo  role.Repository
	publisher eventbus.EventBus
}

func NewOrgUnitService(repo orgunit.Repository, roleRepo role.Repository, publisher eventbus.EventBus) *OrgUnitService {
	return &OrgUnitService{
		repo:      repo,
		roleRepo:  roleRepo,
		publisher: publisher,
	}
}

func (s *OrgUnitService) GetByID(ctx context.Context, id uint) (*orgunit.OrgUnit, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*orgunit.OrgUnit, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

// Create validates the parent, assigns the next sibling code, and persists the
// unit. Losing the unique-index race on (parent, code) rolls the transaction
// back and reassigns a fresh code.
func (s *OrgUnitService) Create(ctx context.Context, parentID *uint, name string) (*orgunit.OrgUnit, error) {
	var lastErr error
	for attempt := 0; attempt < maxCodeAssignRetries; attempt++ {
		created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*orgunit.OrgUnit, error) {
			return s.createOnce(txCtx, parentID, name)
		})
		if persistence.IsSiblingCodeConflict(err) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publisher.Publish(OrgUnitCreatedEvent{Unit: created})
		return created, nil
	}
	return nil, lastErr
}

func (s *OrgUnitService) createOnce(ctx context.Context, parentID *uint, name string) (*orgunit.OrgUnit, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var parentCode orgunit.Code
	if parentID != nil {
		parent, err := s.repo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.TenantID() != tenantID {
			return nil, serrors.ErrOrgUnitNotFound
		}
		parentCode = parent.Code()
	}

	siblings, err := s.repo.SiblingCodes(ctx, parentID)
	if err != nil {
		return nil, err
	}
	code, err := orgunit.NextCode(parentCode, siblings)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, orgunit.New(
		tenantID,
		name,
		orgunit.WithParentID(parentID),
		orgunit.WithCode(code),
	))
}

// Update renames the unit and, when the parent changes, reparents it: the unit
// gets a fresh code under the new parent and every transitive descendant has
// the old code prefix replaced, all within one transaction.
func (s *OrgUnitService) Update(ctx context.Context, id uint, newParentID *uint, name string) (*orgunit.OrgUnit, error) {
	updated, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*orgunit.OrgUnit, error) {
		unit, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		unit.SetName(name)

		if !sameParent(unit.ParentID(), newParentID) {
			if err := s.reparent(txCtx, unit, newParentID); err != nil {
				return nil, err
			}
		}
		return s.repo.Update(txCtx, unit)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(OrgUnitUpdatedEvent{Unit: updated})
	return updated, nil
}

func (s *OrgUnitService) reparent(ctx context.Context, unit *orgunit.OrgUnit, newParentID *uint) error {
	var newParentCode orgunit.Code
	if newParentID != nil {
		if *newParentID == unit.ID() {
			return serrors.ErrCyclicReparent
		}
		newParent, err := s.repo.GetByID(ctx, *newParentID)
		if err != nil {
			return err
		}
		if newParent.Code().IsDescendantOf(unit.Code()) {
			return serrors.ErrCyclicReparent
		}
		newParentCode = newParent.Code()
	}

	descendants, err := s.repo.Descendants(ctx, unit.Code())
	if err != nil {
		return err
	}
	descendantCodes := make(map[uint]orgunit.Code, len(descendants))
	for _, d := range descendants {
		descendantCodes[d.ID()] = d.Code()
	}

	siblings, err := s.repo.SiblingCodes(ctx, newParentID)
	if err != nil {
		return err
	}
	newCode, rewrites, err := orgunit.Reparent(unit.Code(), newParentCode, siblings, descendantCodes)
	if err != nil {
		return err
	}

	unit.SetParent(newParentID, newCode)
	return s.repo.UpdateCodes(ctx, rewrites)
}

// Delete soft-deletes the unit only. Descendants are deliberately left in
// place under the deleted ancestor; callers reparent or delete them
// explicitly.
func (s *OrgUnitService) Delete(ctx context.Context, id uint) error {
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.SoftDelete(txCtx, id)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(OrgUnitDeletedEvent{UnitID: id})
	return nil
}

func (s *OrgUnitService) AssignRole(ctx context.Context, unitID, roleID uint) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, unitID); err != nil {
			return err
		}
		if _, err := s.roleRepo.GetByID(txCtx, roleID); err != nil {
			return err
		}
		return s.repo.AssignRole(txCtx, unitID, roleID)
	})
}

func (s *OrgUnitService) RemoveRole(ctx context.Context, unitID, roleID uint) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, unitID); err != nil {
			return err
		}
		return s.repo.RemoveRole(txCtx, unitID, roleID)
	})
}

// GetEffectiveRoles returns the roles linked to the unit and, when
// includeDescendants is set, to every live transitive descendant.
func (s *OrgUnitService) GetEffectiveRoles(ctx context.Context, unitID uint, includeDescendants bool) ([]*role.Role, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*role.Role, error) {
		unit, err := s.repo.GetByID(txCtx, unitID)
		if err != nil {
			return nil, err
		}
		unitIDs := []uint{unit.ID()}
		if includeDescendants {
			descendants, err := s.repo.Descendants(txCtx, unit.Code())
			if err != nil {
				return nil, err
			}
			for _, d := range descendants {
				unitIDs = append(unitIDs, d.ID())
			}
		}
		roleIDs, err := s.repo.RoleIDs(txCtx, unitIDs)
		if err != nil {
			return nil, err
		}
		roles := make([]*role.Role, 0, len(roleIDs))
		for _, id := range roleIDs {
			r, err := s.roleRepo.GetByID(txCtx, id)
			if err != nil {
				return nil, err
			}
			roles = append(roles, r)
		}
		return roles, nil
	})
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
