package role

import "context"

type Repository interface {
	Create(ctx context.Context, r *Role) (*Role, error)
	Update(ctx context.Context, r *Role) (*Role, error)
	GetByID(ctx context.Context, id uint) (*Role, error)
	GetByNormalizedName(ctx context.Context, normalizedName string) (*Role, error)
	GetAll(ctx context.Context) ([]*Role, error)
	Delete(ctx context.Context, id uint) error

	// SetPermissions replaces the role's grant set: grants absent from names
	// are revoked, new ones added. Must run inside the ambient transaction.
	SetPermissions(ctx context.Context, roleID uint, names []string) error
	Permissions(ctx context.Context, roleID uint) ([]string, error)
	PermissionsForRoles(ctx context.Context, roleIDs []uint) ([]string, error)
}
