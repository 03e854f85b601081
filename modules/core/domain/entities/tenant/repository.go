package tenant

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) (*Tenant, error)
	// SoftDelete marks the tenant deleted; rows are never physically removed.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// ExistsByAdminPhone and ExistsByAdminEmail check across ALL tenants and
	// must run outside the tenant filter.
	ExistsByAdminPhone(ctx context.Context, phone string) (bool, error)
	ExistsByAdminEmail(ctx context.Context, email string) (bool, error)
}
