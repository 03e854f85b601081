package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/edition"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/tenant"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/configuration"
	"github.com/ferrumlabs/backoffice/pkg/eventbus"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

type CreateTenantInput struct {
	Name       string
	AdminPhone string
	AdminEmail string
}

type TenantService struct {
	tenants     tenant.Repository
	editions    edition.Repository
	users       user.Repository
	roles       *RoleService
	orgUnits    *OrgUnitService
	permissions *PermissionService
	contacts    *ContactCache
	conf        configuration.ProvisioningOptions
	publisher   eventbus.EventBus
}

func NewTenantService(
	tenants tenant.Repository,
	editions edition.Repository,
	users user.Repository,
	roles *RoleService,
	orgUnits *OrgUnitService,
	permissions *PermissionService,
	contacts *ContactCache,
	conf configuration.ProvisioningOptions,
	publisher eventbus.EventBus,
) *TenantService {
	return &TenantService{
		tenants:     tenants,
		editions:    editions,
		users:       users,
		roles:       roles,
		orgUnits:    orgUnits,
		permissions: permissions,
		contacts:    contacts,
		conf:        conf,
		publisher:   publisher,
	}
}

// CreateTenant provisions a new tenant:
//
//  1. admin phone and email are checked for uniqueness across ALL tenants
//     (no tenant filter), then the tenant row is committed so its id exists;
//  2. inside a scope bound to the new tenant, the admin role is created and
//     granted every resolvable permission, the default administrative org
//     unit is created with the role bound to it, and the admin user is
//     created, placed in that unit, and given the role directly.
//
// The tenant row commits before the scoped phase, so a failure there leaves a
// tenant without an admin. That partial state is surfaced as a consistency
// error carrying the tenant id; no automatic rollback or cleanup is attempted.
func (s *TenantService) CreateTenant(ctx context.Context, input CreateTenantInput) (*tenant.Tenant, error) {
	created, err := s.createTenantRow(ctx, input)
	if err != nil {
		return nil, err
	}

	tenantCtx := composables.WithTenantID(ctx, created.ID())
	if err := composables.InTenantTx(tenantCtx, func(txCtx context.Context) error {
		return s.provisionTenantScope(txCtx, created, input)
	}); err != nil {
		return nil, serrors.Wrap(serrors.ErrPartialProvisioning, err)
	}

	if err := s.contacts.Remember(ctx, input.AdminPhone, created.ID()); err != nil {
		composables.UseLogger(ctx).Warnf("failed to cache tenant admin contact: %v", err)
	}

	s.publisher.Publish(TenantCreatedEvent{Tenant: created})
	return created, nil
}

func (s *TenantService) createTenantRow(ctx context.Context, input CreateTenantInput) (*tenant.Tenant, error) {
	var created *tenant.Tenant
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if exists, err := s.tenants.ExistsByAdminPhone(txCtx, input.AdminPhone); err != nil {
			return err
		} else if exists {
			return serrors.ErrPhoneNumberDuplicated
		}
		if exists, err := s.tenants.ExistsByAdminEmail(txCtx, input.AdminEmail); err != nil {
			return err
		} else if exists {
			return serrors.ErrEmailAddressDuplicated
		}

		opts := []tenant.Option{
			tenant.WithAdminPhone(input.AdminPhone),
			tenant.WithAdminEmail(input.AdminEmail),
		}
		if defaultEdition, err := s.editions.GetDefault(txCtx); err == nil {
			id := defaultEdition.ID
			opts = append(opts, tenant.WithEditionID(&id))
		}

		var err error
		created, err = s.tenants.Create(txCtx, tenant.New(input.Name, opts...))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TenantService) provisionTenantScope(ctx context.Context, t *tenant.Tenant, input CreateTenantInput) error {
	tenantID := t.ID()

	eligible, err := s.permissions.GetAllPermissions(ctx, &tenantID)
	if err != nil {
		return err
	}
	permissionNames := make([]string, len(eligible))
	for i, p := range eligible {
		permissionNames[i] = p.Name
	}

	adminRole, err := s.roles.CreateAndGrant(ctx, role.New(
		s.conf.AdminRoleName,
		role.WithTenantID(tenantID),
		role.WithDescription("Administrator"),
	), permissionNames)
	if err != nil {
		return err
	}

	adminUnit, err := s.orgUnits.Create(ctx, nil, s.conf.AdminOrgUnitName)
	if err != nil {
		return err
	}
	if err := s.orgUnits.AssignRole(ctx, adminUnit.ID(), adminRole.ID()); err != nil {
		return err
	}

	admin := user.New(
		s.conf.AdminUserName,
		user.WithTenantID(tenantID),
		user.WithPhone(input.AdminPhone),
		user.WithEmail(input.AdminEmail),
	)
	if err := admin.SetPassword(s.conf.AdminPassword); err != nil {
		return err
	}
	createdAdmin, err := s.users.Create(ctx, admin)
	if err != nil {
		return err
	}
	if err := s.users.AddToOrgUnit(ctx, createdAdmin.ID(), adminUnit.ID()); err != nil {
		return err
	}
	// Direct assignment as well, in case the unit-role linkage changes later.
	return s.users.AddRole(ctx, createdAdmin.ID(), adminRole.ID())
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var t *tenant.Tenant
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		t, err = s.tenants.GetByID(txCtx, id)
		return err
	})
	return t, err
}

func (s *TenantService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		t, err := s.tenants.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		t.SetIsActive(active)
		_, err = s.tenants.Update(txCtx, t)
		return err
	})
}

// DeleteTenant purges all of the tenant's users inside the tenant's scope,
// soft-deletes the tenant row, and evicts the admin-contact cache entry.
func (s *TenantService) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tenantCtx := composables.WithTenantID(ctx, id)
	if err := composables.InTenantTx(tenantCtx, func(txCtx context.Context) error {
		if err := s.users.DeleteAllForTenant(txCtx, id); err != nil {
			return err
		}
		return s.tenants.SoftDelete(txCtx, id)
	}); err != nil {
		return err
	}

	if err := s.contacts.Evict(ctx, t.AdminPhone()); err != nil {
		composables.UseLogger(ctx).Warnf("failed to evict tenant admin contact cache: %v", err)
	}

	s.publisher.Publish(TenantDeletedEvent{TenantID: id})
	return nil
}
