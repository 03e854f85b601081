package services

import (
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/tenant"
)

type TenantCreatedEvent struct {
	Tenant *tenant.Tenant
}

type TenantDeletedEvent struct {
	TenantID uuid.UUID
}

type RoleCreatedEvent struct {
	Role *role.Role
}

type RoleUpdatedEvent struct {
	Role *role.Role
}

type RoleDeletedEvent struct {
	RoleID uint
}

type OrgUnitCreatedEvent struct {
	Unit *orgunit.OrgUnit
}

type OrgUnitUpdatedEvent struct {
	Unit *orgunit.OrgUnit
}

type OrgUnitDeletedEvent struct {
	UnitID uint
}
