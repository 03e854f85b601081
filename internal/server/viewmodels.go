package server

import (
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/permission"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/tenant"
)

type tenantView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	EditionID  *uuid.UUID `json:"editionId,omitempty"`
	AdminPhone string     `json:"adminPhone"`
	AdminEmail string     `json:"adminEmail"`
	IsActive   bool       `json:"isActive"`
}

func toTenantView(t *tenant.Tenant) tenantView {
	return tenantView{
		ID:         t.ID(),
		Name:       t.Name(),
		EditionID:  t.EditionID(),
		AdminPhone: t.AdminPhone(),
		AdminEmail: t.AdminEmail(),
		IsActive:   t.IsActive(),
	}
}

type orgUnitView struct {
	ID       uint   `json:"id"`
	ParentID *uint  `json:"parentId,omitempty"`
	Name     string `json:"name"`
	Code     string `json:"code"`
}

func toOrgUnitView(u *orgunit.OrgUnit) orgUnitView {
	return orgUnitView{
		ID:       u.ID(),
		ParentID: u.ParentID(),
		Name:     u.Name(),
		Code:     string(u.Code()),
	}
}

func newRole(tenantID uuid.UUID, name, description string) *role.Role {
	return role.New(name, role.WithTenantID(tenantID), role.WithDescription(description))
}

type roleView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

func toRoleView(r *role.Role) roleView {
	perms := r.Permissions()
	if perms == nil {
		perms = []string{}
	}
	return roleView{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		Permissions: perms,
	}
}

func toRoleViews(roles []*role.Role) []roleView {
	out := make([]roleView, len(roles))
	for i, r := range roles {
		out[i] = toRoleView(r)
	}
	return out
}

type permissionView struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Feature     string `json:"feature,omitempty"`
}

func toPermissionViews(perms []*permission.Permission) []permissionView {
	out := make([]permissionView, len(perms))
	for i, p := range perms {
		out[i] = permissionView{Name: p.Name, DisplayName: p.DisplayName, Feature: p.Feature}
	}
	return out
}

type userView struct {
	ID       uint      `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`
	Username string    `json:"username"`
	Phone    string    `json:"phone,omitempty"`
	Email    string    `json:"email,omitempty"`
}

func toUserView(u *user.User) userView {
	return userView{
		ID:       u.ID(),
		TenantID: u.TenantID(),
		Username: u.Username(),
		Phone:    u.Phone(),
		Email:    u.Email(),
	}
}
