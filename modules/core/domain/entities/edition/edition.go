package edition

import (
	"context"

	"github.com/google/uuid"
)

// Edition is a named plan tenants subscribe to. Provisioning assigns the
// default edition to new tenants when one exists.
type Edition struct {
	ID          uuid.UUID
	Name        string
	DisplayName string
	IsDefault   bool
}

type Repository interface {
	GetDefault(ctx context.Context) (*Edition, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Edition, error)
	Save(ctx context.Context, e *Edition) error
}
