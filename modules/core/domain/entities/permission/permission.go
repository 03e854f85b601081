package permission

import "github.com/google/uuid"

// Side declares which kind of caller a permission is resolvable for.
type Side string

const (
	SideHost   Side = "host"
	SideTenant Side = "tenant"
	SideBoth   Side = "both"
)

// MatchesTenantSide reports whether the permission is visible to a caller on
// the given side of the multi-tenancy boundary.
func (s Side) MatchesTenantSide(isTenant bool) bool {
	switch s {
	case SideBoth:
		return true
	case SideTenant:
		return isTenant
	case SideHost:
		return !isTenant
	}
	return false
}

type Permission struct {
	ID          uuid.UUID
	Name        string
	DisplayName string
	// Feature, when set, names a tenant feature that must be enabled for this
	// permission to be resolvable in that tenant.
	Feature string
	Side    Side
}

func (p *Permission) RequiresFeature() bool {
	return p.Feature != ""
}
