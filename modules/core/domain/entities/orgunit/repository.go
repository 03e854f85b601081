package orgunit

import "context"

type Repository interface {
	Create(ctx context.Context, unit *OrgUnit) (*OrgUnit, error)
	GetByID(ctx context.Context, id uint) (*OrgUnit, error)
	Update(ctx context.Context, unit *OrgUnit) (*OrgUnit, error)
	// SiblingCodes returns the codes of ALL units ever created under the
	// parent, including soft-deleted ones, so deleted ordinals are not reused.
	SiblingCodes(ctx context.Context, parentID *uint) ([]Code, error)
	// Descendants returns the live transitive descendants of the unit owning
	// the given code.
	Descendants(ctx context.Context, code Code) ([]*OrgUnit, error)
	// UpdateCodes applies a reparent cascade. Implementations must apply the
	// whole mapping within the ambient transaction.
	UpdateCodes(ctx context.Context, rewrites []CodeRewrite) error
	SoftDelete(ctx context.Context, id uint) error

	AssignRole(ctx context.Context, unitID, roleID uint) error
	// RemoveRole soft-deletes the link so historical membership stays queryable.
	RemoveRole(ctx context.Context, unitID, roleID uint) error
	// RoleIDs returns roles currently linked (links not soft-deleted) to any
	// of the given units.
	RoleIDs(ctx context.Context, unitIDs []uint) ([]uint, error)
}
