package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/feature"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/permission"
	"github.com/ferrumlabs/backoffice/modules/core/permissions"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

// PermissionService resolves effective permission grants. Feature state is
// re-checked at resolution time: a grant whose required feature has since been
// disabled is simply not resolved, even though the grant record still exists.
type PermissionService struct {
	features feature.Store
	roleRepo role.Repository
	orgUnits orgunit.Repository
}

func NewPermissionService(features feature.Store, roleRepo role.Repository, orgUnits orgunit.Repository) *PermissionService {
	return &PermissionService{
		features: features,
		roleRepo: roleRepo,
		orgUnits: orgUnits,
	}
}

// GetAllPermissions returns every permission resolvable for the caller: host
// callers (nil tenantID) see host-side permissions, tenant callers see
// tenant-side ones whose feature dependency (if any) is enabled for that
// tenant.
func (s *PermissionService) GetAllPermissions(ctx context.Context, tenantID *uuid.UUID) ([]*permission.Permission, error) {
	isTenant := tenantID != nil
	var eligible []*permission.Permission
	for _, p := range permissions.All() {
		if !p.Side.MatchesTenantSide(isTenant) {
			continue
		}
		if isTenant && p.RequiresFeature() {
			enabled, err := s.features.IsEnabled(ctx, *tenantID, p.Feature)
			if err != nil {
				return nil, err
			}
			if !enabled {
				continue
			}
		}
		eligible = append(eligible, p)
	}
	return eligible, nil
}

// GetGrantedForRole intersects the role's grant records with the permissions
// currently resolvable in its tenant.
func (s *PermissionService) GetGrantedForRole(ctx context.Context, r *role.Role) ([]*permission.Permission, error) {
	tenantID := r.TenantID()
	eligible, err := s.GetAllPermissions(ctx, &tenantID)
	if err != nil {
		return nil, err
	}
	return intersectByName(eligible, r.Permissions()), nil
}

// GetGrantedForUser resolves the union of grants across the user's direct
// roles and the roles inherited through organization-unit membership, again
// intersected with the tenant's resolvable set.
func (s *PermissionService) GetGrantedForUser(ctx context.Context, u *user.User) ([]*permission.Permission, error) {
	roleIDs := make(map[uint]struct{}, len(u.RoleIDs()))
	for _, id := range u.RoleIDs() {
		roleIDs[id] = struct{}{}
	}
	inherited, err := s.orgUnits.RoleIDs(ctx, u.OrgUnitIDs())
	if err != nil {
		return nil, err
	}
	for _, id := range inherited {
		roleIDs[id] = struct{}{}
	}

	ids := make([]uint, 0, len(roleIDs))
	for id := range roleIDs {
		ids = append(ids, id)
	}
	grantedNames, err := s.roleRepo.PermissionsForRoles(ctx, ids)
	if err != nil {
		return nil, err
	}

	tenantID := u.TenantID()
	eligible, err := s.GetAllPermissions(ctx, &tenantID)
	if err != nil {
		return nil, err
	}
	return intersectByName(eligible, grantedNames), nil
}

// SetGrantedPermissions replaces the role's grant set transactionally:
// existing grants not in names are revoked, new ones added.
func (s *PermissionService) SetGrantedPermissions(ctx context.Context, roleID uint, names []string) error {
	for _, name := range names {
		if permissions.ByName(name) == nil {
			return serrors.NewValidation("UNKNOWN_PERMISSION", "unknown permission: "+name)
		}
	}
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := s.roleRepo.GetByID(txCtx, roleID); err != nil {
			return err
		}
		return s.roleRepo.SetPermissions(txCtx, roleID, names)
	})
}

func intersectByName(eligible []*permission.Permission, grantedNames []string) []*permission.Permission {
	granted := make(map[string]struct{}, len(grantedNames))
	for _, name := range grantedNames {
		granted[name] = struct{}{}
	}
	var out []*permission.Permission
	for _, p := range eligible {
		if _, ok := granted[p.Name]; ok {
			out = append(out, p)
		}
	}
	return out
}
