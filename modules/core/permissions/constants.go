package permissions

import (
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/permission"
	"github.com/ferrumlabs/backoffice/modules/core/features"
)

var (
	UserCreate = &permission.Permission{
		ID:          uuid.MustParse("8b6060b3-af5e-4ae0-b32d-b33695141066"),
		Name:        "User.Create",
		DisplayName: "Create users",
		Side:        permission.SideBoth,
	}
	UserRead = &permission.Permission{
		ID:          uuid.MustParse("13f011c8-1107-4957-ad19-70cfc167a775"),
		Name:        "User.Read",
		DisplayName: "View users",
		Side:        permission.SideBoth,
	}
	UserUpdate = &permission.Permission{
		ID:          uuid.MustParse("1c351fd3-9a2b-40b9-80b1-11ba81e645c8"),
		Name:        "User.Update",
		DisplayName: "Update users",
		Side:        permission.SideBoth,
	}
	UserDelete = &permission.Permission{
		ID:          uuid.MustParse("547cded3-6754-4a05-aeb0-a38d12ed05ee"),
		Name:        "User.Delete",
		DisplayName: "Delete users",
		Side:        permission.SideBoth,
	}
	RoleCreate = &permission.Permission{
		ID:          uuid.MustParse("60f195ed-d373-41c3-a39d-bb7484850840"),
		Name:        "Role.Create",
		DisplayName: "Create roles",
		Side:        permission.SideBoth,
	}
	RoleRead = &permission.Permission{
		ID:          uuid.MustParse("51d1025e-11fe-405e-9ab4-88078c28e110"),
		Name:        "Role.Read",
		DisplayName: "View roles",
		Side:        permission.SideBoth,
	}
	RoleUpdate = &permission.Permission{
		ID:          uuid.MustParse("cb8b9b85-e942-4a29-98a1-e88a00b0e8a7"),
		Name:        "Role.Update",
		DisplayName: "Update roles",
		Side:        permission.SideBoth,
	}
	RoleDelete = &permission.Permission{
		ID:          uuid.MustParse("4e0e2a1e-14ad-4f21-8a9c-4a2b0f6e8d11"),
		Name:        "Role.Delete",
		DisplayName: "Delete roles",
		Side:        permission.SideBoth,
	}
	OrgUnitCreate = &permission.Permission{
		ID:          uuid.MustParse("5a1c7d9b-3e2f-4b8a-9d6c-0f1e2a3b4c5d"),
		Name:        "OrgUnit.Create",
		DisplayName: "Create organization units",
		Feature:     features.OrganizationUnits,
		Side:        permission.SideTenant,
	}
	OrgUnitRead = &permission.Permission{
		ID:          uuid.MustParse("9e8d7c6b-5a4f-4e3d-2c1b-0a9f8e7d6c5b"),
		Name:        "OrgUnit.Read",
		DisplayName: "View organization units",
		Feature:     features.OrganizationUnits,
		Side:        permission.SideTenant,
	}
	OrgUnitUpdate = &permission.Permission{
		ID:          uuid.MustParse("3b2a1c0d-9e8f-4a7b-6c5d-4e3f2a1b0c9d"),
		Name:        "OrgUnit.Update",
		DisplayName: "Update organization units",
		Feature:     features.OrganizationUnits,
		Side:        permission.SideTenant,
	}
	OrgUnitDelete = &permission.Permission{
		ID:          uuid.MustParse("d4c3b2a1-0f9e-4d8c-7b6a-5e4d3c2b1a0f"),
		Name:        "OrgUnit.Delete",
		DisplayName: "Delete organization units",
		Feature:     features.OrganizationUnits,
		Side:        permission.SideTenant,
	}
	SmsLogin = &permission.Permission{
		ID:          uuid.MustParse("6f5e4d3c-2b1a-4098-a7b6-c5d4e3f2a1b0"),
		Name:        "Auth.SmsLogin",
		DisplayName: "Log in with SMS codes",
		Feature:     features.SmsAuthentication,
		Side:        permission.SideTenant,
	}
	TenantCreate = &permission.Permission{
		ID:          uuid.MustParse("0a1b2c3d-4e5f-4687-89ab-cdef01234567"),
		Name:        "Tenant.Create",
		DisplayName: "Create tenants",
		Side:        permission.SideHost,
	}
	TenantDelete = &permission.Permission{
		ID:          uuid.MustParse("76543210-fedc-4ba9-8765-43210fedcba9"),
		Name:        "Tenant.Delete",
		DisplayName: "Delete tenants",
		Side:        permission.SideHost,
	}
)

func All() []*permission.Permission {
	return []*permission.Permission{
		UserCreate,
		UserRead,
		UserUpdate,
		UserDelete,
		RoleCreate,
		RoleRead,
		RoleUpdate,
		RoleDelete,
		OrgUnitCreate,
		OrgUnitRead,
		OrgUnitUpdate,
		OrgUnitDelete,
		SmsLogin,
		TenantCreate,
		TenantDelete,
	}
}

// ByName returns the registry entry for name, or nil when unknown.
func ByName(name string) *permission.Permission {
	for _, p := range All() {
		if p.Name == name {
			return p
		}
	}
	return nil
}
