package feature

import (
	"context"

	"github.com/google/uuid"
)

type Feature struct {
	ID           uuid.UUID
	Name         string
	DefaultValue bool
}

// Store resolves per-tenant feature values, falling back to the feature's
// default when the tenant has no explicit setting.
type Store interface {
	IsEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
	SetValue(ctx context.Context, tenantID uuid.UUID, name string, enabled bool) error
}
