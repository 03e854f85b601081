package tenant

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	id         uuid.UUID
	name       string
	editionID  *uuid.UUID
	adminPhone string
	adminEmail string
	isActive   bool
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

type Option func(*Tenant)

func WithID(id uuid.UUID) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithEditionID(editionID *uuid.UUID) Option {
	return func(t *Tenant) {
		t.editionID = editionID
	}
}

func WithAdminPhone(phone string) Option {
	return func(t *Tenant) {
		t.adminPhone = phone
	}
}

func WithAdminEmail(email string) Option {
	return func(t *Tenant) {
		t.adminEmail = email
	}
}

func WithIsActive(isActive bool) Option {
	return func(t *Tenant) {
		t.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

func WithDeletedAt(deletedAt *time.Time) Option {
	return func(t *Tenant) {
		t.deletedAt = deletedAt
	}
}

func New(name string, opts ...Option) *Tenant {
	t := &Tenant{
		id:        uuid.New(),
		name:      name,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tenant) ID() uuid.UUID {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) EditionID() *uuid.UUID {
	return t.editionID
}

func (t *Tenant) AdminPhone() string {
	return t.adminPhone
}

func (t *Tenant) AdminEmail() string {
	return t.adminEmail
}

func (t *Tenant) IsActive() bool {
	return t.isActive
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Tenant) DeletedAt() *time.Time {
	return t.deletedAt
}

func (t *Tenant) SetName(name string) {
	t.name = name
	t.updatedAt = time.Now()
}

func (t *Tenant) SetIsActive(isActive bool) {
	t.isActive = isActive
	t.updatedAt = time.Now()
}

func (t *Tenant) SetEditionID(editionID *uuid.UUID) {
	t.editionID = editionID
	t.updatedAt = time.Now()
}
