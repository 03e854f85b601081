package user

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	id           uint
	tenantID     uuid.UUID
	username     string
	firstName    string
	lastName     string
	email        string
	phone        string
	passwordHash string
	isActive     bool
	expiresAt    *time.Time
	roleIDs      []uint
	orgUnitIDs   []uint
	createdAt    time.Time
	updatedAt    time.Time
}

type Option func(*User)

func WithID(id uint) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(u *User) {
		u.tenantID = tenantID
	}
}

func WithName(firstName, lastName string) Option {
	return func(u *User) {
		u.firstName = firstName
		u.lastName = lastName
	}
}

func WithEmail(email string) Option {
	return func(u *User) {
		u.email = email
	}
}

func WithPhone(phone string) Option {
	return func(u *User) {
		u.phone = phone
	}
}

func WithPasswordHash(hash string) Option {
	return func(u *User) {
		u.passwordHash = hash
	}
}

func WithIsActive(isActive bool) Option {
	return func(u *User) {
		u.isActive = isActive
	}
}

func WithExpiresAt(expiresAt *time.Time) Option {
	return func(u *User) {
		u.expiresAt = expiresAt
	}
}

func WithRoleIDs(roleIDs []uint) Option {
	return func(u *User) {
		u.roleIDs = roleIDs
	}
}

func WithOrgUnitIDs(orgUnitIDs []uint) Option {
	return func(u *User) {
		u.orgUnitIDs = orgUnitIDs
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *User) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *User) {
		u.updatedAt = updatedAt
	}
}

func New(username string, opts ...Option) *User {
	u := &User{
		username:  username,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *User) ID() uint {
	return u.id
}

func (u *User) TenantID() uuid.UUID {
	return u.tenantID
}

func (u *User) Username() string {
	return u.username
}

func (u *User) FirstName() string {
	return u.firstName
}

func (u *User) LastName() string {
	return u.lastName
}

func (u *User) Email() string {
	return u.email
}

func (u *User) Phone() string {
	return u.phone
}

func (u *User) PasswordHash() string {
	return u.passwordHash
}

func (u *User) IsActive() bool {
	return u.isActive
}

func (u *User) ExpiresAt() *time.Time {
	return u.expiresAt
}

func (u *User) RoleIDs() []uint {
	return u.roleIDs
}

func (u *User) OrgUnitIDs() []uint {
	return u.orgUnitIDs
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.passwordHash = string(hash)
	u.updatedAt = time.Now()
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

// CanLogin reports whether the account is active and unexpired at now.
func (u *User) CanLogin(now time.Time) bool {
	if !u.isActive {
		return false
	}
	if u.expiresAt != nil && now.After(*u.expiresAt) {
		return false
	}
	return true
}
