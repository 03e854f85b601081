package orgunit

import (
	"time"

	"github.com/google/uuid"
)

type OrgUnit struct {
	id        uint
	tenantID  uuid.UUID
	parentID  *uint
	name      string
	code      Code
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

type Option func(*OrgUnit)

func WithID(id uint) Option {
	return func(u *OrgUnit) {
		u.id = id
	}
}

func WithParentID(parentID *uint) Option {
	return func(u *OrgUnit) {
		u.parentID = parentID
	}
}

func WithCode(code Code) Option {
	return func(u *OrgUnit) {
		u.code = code
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *OrgUnit) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *OrgUnit) {
		u.updatedAt = updatedAt
	}
}

func WithDeletedAt(deletedAt *time.Time) Option {
	return func(u *OrgUnit) {
		u.deletedAt = deletedAt
	}
}

func New(tenantID uuid.UUID, name string, opts ...Option) *OrgUnit {
	u := &OrgUnit{
		tenantID:  tenantID,
		name:      name,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *OrgUnit) ID() uint {
	return u.id
}

func (u *OrgUnit) TenantID() uuid.UUID {
	return u.tenantID
}

func (u *OrgUnit) ParentID() *uint {
	return u.parentID
}

func (u *OrgUnit) Name() string {
	return u.name
}

func (u *OrgUnit) Code() Code {
	return u.code
}

func (u *OrgUnit) CreatedAt() time.Time {
	return u.createdAt
}

func (u *OrgUnit) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *OrgUnit) DeletedAt() *time.Time {
	return u.deletedAt
}

func (u *OrgUnit) SetName(name string) {
	u.name = name
	u.updatedAt = time.Now()
}

func (u *OrgUnit) SetParent(parentID *uint, code Code) {
	u.parentID = parentID
	u.code = code
	u.updatedAt = time.Now()
}
