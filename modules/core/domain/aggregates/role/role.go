package role

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role struct {
	id          uint
	tenantID    uuid.UUID
	name        string
	description string
	// permissions holds granted permission names; grants are resolved against
	// the registry and tenant feature state at read time, not here.
	permissions []string
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Role)

func WithID(id uint) Option {
	return func(r *Role) {
		r.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(r *Role) {
		r.tenantID = tenantID
	}
}

func WithDescription(description string) Option {
	return func(r *Role) {
		r.description = description
	}
}

func WithPermissions(permissions []string) Option {
	return func(r *Role) {
		r.permissions = permissions
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(r *Role) {
		r.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(r *Role) {
		r.updatedAt = updatedAt
	}
}

func New(name string, opts ...Option) *Role {
	r := &Role{
		name:      name,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize is the canonical form role names are compared in.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (r *Role) ID() uint {
	return r.id
}

func (r *Role) TenantID() uuid.UUID {
	return r.tenantID
}

func (r *Role) Name() string {
	return r.name
}

func (r *Role) NormalizedName() string {
	return Normalize(r.name)
}

func (r *Role) Description() string {
	return r.description
}

func (r *Role) Permissions() []string {
	return r.permissions
}

func (r *Role) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Role) UpdatedAt() time.Time {
	return r.updatedAt
}

func (r *Role) SetName(name string) {
	r.name = name
	r.updatedAt = time.Now()
}

func (r *Role) SetDescription(description string) {
	r.description = description
	r.updatedAt = time.Now()
}
