package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)

	AddRole(ctx context.Context, userID, roleID uint) error
	RemoveRole(ctx context.Context, userID, roleID uint) error
	AddToOrgUnit(ctx context.Context, userID, orgUnitID uint) error

	// FindByRoleID returns every user in the current tenant directly holding
	// the role.
	FindByRoleID(ctx context.Context, roleID uint) ([]*User, error)
	// DeleteAllForTenant removes every user scoped to the tenant; used when a
	// tenant is deleted.
	DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error
}
