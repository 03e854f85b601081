package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/edition"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/tenant"
	"github.com/ferrumlabs/backoffice/modules/core/features"
	"github.com/ferrumlabs/backoffice/modules/core/infrastructure/persistence"
	"github.com/ferrumlabs/backoffice/pkg/cache"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/eventbus"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

// fakeTx satisfies pgx.Tx so the transaction composables reuse it instead of
// demanding a pool. Statements are swallowed; state lives in the fake repos.
type fakeTx struct{}

func (fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(ctx context.Context) error          { return nil }
func (fakeTx) Rollback(ctx context.Context) error        { return nil }
func (fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeTx) Conn() *pgx.Conn                                               { return nil }

func tenantContext(tenantID uuid.UUID) context.Context {
	ctx := composables.WithTx(context.Background(), fakeTx{})
	return composables.WithTenantID(ctx, tenantID)
}

func quietBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

// memCache is an in-memory cache.Cache. Expiry is not simulated; tests drop
// keys explicitly to model the expiry of a challenge.
type memCache struct {
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (c *memCache) Get(ctx context.Context, key string, slide time.Duration) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key, value string, expiry time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Incr(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *memCache) drop(key string) {
	delete(c.values, key)
}

type sentPin struct {
	operationName string
	phoneNumber   string
	pinCode       string
}

type fakeGateway struct {
	sent []sentPin
	err  error
}

func (g *fakeGateway) SendPinCode(ctx context.Context, operationName, phoneNumber, pinCode string) error {
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentPin{operationName, phoneNumber, pinCode})
	return nil
}

// fakeFeatureStore resolves from the compiled-in registry defaults with
// explicit overrides layered on top.
type fakeFeatureStore struct {
	overrides map[string]bool
}

func newFakeFeatureStore() *fakeFeatureStore {
	return &fakeFeatureStore{overrides: map[string]bool{}}
}

func (s *fakeFeatureStore) IsEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	if v, ok := s.overrides[name]; ok {
		return v, nil
	}
	for _, f := range features.All() {
		if f.Name == name {
			return f.DefaultValue, nil
		}
	}
	return false, nil
}

func (s *fakeFeatureStore) SetValue(ctx context.Context, tenantID uuid.UUID, name string, enabled bool) error {
	s.overrides[name] = enabled
	return nil
}

type fakeRoleRepo struct {
	nextID uint
	roles  map[uint]*role.Role
	grants map[uint][]string
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[uint]*role.Role{}, grants: map[uint][]string{}}
}

func (r *fakeRoleRepo) snapshot(stored *role.Role) *role.Role {
	return role.New(
		stored.Name(),
		role.WithID(stored.ID()),
		role.WithTenantID(stored.TenantID()),
		role.WithDescription(stored.Description()),
		role.WithPermissions(append([]string(nil), r.grants[stored.ID()]...)),
	)
}

func (r *fakeRoleRepo) Create(ctx context.Context, data *role.Role) (*role.Role, error) {
	r.nextID++
	stored := role.New(
		data.Name(),
		role.WithID(r.nextID),
		role.WithTenantID(data.TenantID()),
		role.WithDescription(data.Description()),
	)
	r.roles[r.nextID] = stored
	return r.snapshot(stored), nil
}

func (r *fakeRoleRepo) Update(ctx context.Context, data *role.Role) (*role.Role, error) {
	if _, ok := r.roles[data.ID()]; !ok {
		return nil, serrors.ErrRoleNotFound
	}
	stored := role.New(
		data.Name(),
		role.WithID(data.ID()),
		role.WithTenantID(data.TenantID()),
		role.WithDescription(data.Description()),
	)
	r.roles[data.ID()] = stored
	return r.snapshot(stored), nil
}

func (r *fakeRoleRepo) GetByID(ctx context.Context, id uint) (*role.Role, error) {
	stored, ok := r.roles[id]
	if !ok {
		return nil, serrors.ErrRoleNotFound
	}
	return r.snapshot(stored), nil
}

func (r *fakeRoleRepo) GetByNormalizedName(ctx context.Context, normalizedName string) (*role.Role, error) {
	for _, stored := range r.roles {
		if stored.NormalizedName() == normalizedName {
			return r.snapshot(stored), nil
		}
	}
	return nil, serrors.ErrRoleNotFound
}

func (r *fakeRoleRepo) GetAll(ctx context.Context) ([]*role.Role, error) {
	out := make([]*role.Role, 0, len(r.roles))
	for _, stored := range r.roles {
		out = append(out, r.snapshot(stored))
	}
	return out, nil
}

func (r *fakeRoleRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.roles[id]; !ok {
		return serrors.ErrRoleNotFound
	}
	delete(r.roles, id)
	delete(r.grants, id)
	return nil
}

func (r *fakeRoleRepo) SetPermissions(ctx context.Context, roleID uint, names []string) error {
	if _, ok := r.roles[roleID]; !ok {
		return serrors.ErrRoleNotFound
	}
	r.grants[roleID] = append([]string(nil), names...)
	return nil
}

func (r *fakeRoleRepo) Permissions(ctx context.Context, roleID uint) ([]string, error) {
	return append([]string(nil), r.grants[roleID]...), nil
}

func (r *fakeRoleRepo) PermissionsForRoles(ctx context.Context, roleIDs []uint) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, id := range roleIDs {
		for _, name := range r.grants[id] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	nextID    uint
	users     map[uint]*user.User
	userRoles map[uint][]uint
	userUnits map[uint][]uint
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     map[uint]*user.User{},
		userRoles: map[uint][]uint{},
		userUnits: map[uint][]uint{},
	}
}

func (r *fakeUserRepo) snapshot(stored *user.User) *user.User {
	return user.New(
		stored.Username(),
		user.WithID(stored.ID()),
		user.WithTenantID(stored.TenantID()),
		user.WithEmail(stored.Email()),
		user.WithPhone(stored.Phone()),
		user.WithPasswordHash(stored.PasswordHash()),
		user.WithIsActive(stored.IsActive()),
		user.WithExpiresAt(stored.ExpiresAt()),
		user.WithRoleIDs(append([]uint(nil), r.userRoles[stored.ID()]...)),
		user.WithOrgUnitIDs(append([]uint(nil), r.userUnits[stored.ID()]...)),
	)
}

func (r *fakeUserRepo) store(u *user.User, id uint) *user.User {
	stored := user.New(
		u.Username(),
		user.WithID(id),
		user.WithTenantID(u.TenantID()),
		user.WithEmail(u.Email()),
		user.WithPhone(u.Phone()),
		user.WithPasswordHash(u.PasswordHash()),
		user.WithIsActive(u.IsActive()),
		user.WithExpiresAt(u.ExpiresAt()),
	)
	r.users[id] = stored
	return stored
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	return r.snapshot(r.store(u, r.nextID)), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if _, ok := r.users[u.ID()]; !ok {
		return nil, serrors.ErrUserNotFound
	}
	return r.snapshot(r.store(u, u.ID())), nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*user.User, error) {
	stored, ok := r.users[id]
	if !ok {
		return nil, serrors.ErrUserNotFound
	}
	return r.snapshot(stored), nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, stored := range r.users {
		if stored.Username() == username {
			return r.snapshot(stored), nil
		}
	}
	return nil, serrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	for _, stored := range r.users {
		if stored.Phone() == phone {
			return r.snapshot(stored), nil
		}
	}
	return nil, serrors.ErrUserNotFound
}

func (r *fakeUserRepo) AddRole(ctx context.Context, userID, roleID uint) error {
	for _, id := range r.userRoles[userID] {
		if id == roleID {
			return nil
		}
	}
	r.userRoles[userID] = append(r.userRoles[userID], roleID)
	return nil
}

func (r *fakeUserRepo) RemoveRole(ctx context.Context, userID, roleID uint) error {
	kept := r.userRoles[userID][:0]
	for _, id := range r.userRoles[userID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	r.userRoles[userID] = kept
	return nil
}

func (r *fakeUserRepo) AddToOrgUnit(ctx context.Context, userID, orgUnitID uint) error {
	r.userUnits[userID] = append(r.userUnits[userID], orgUnitID)
	return nil
}

func (r *fakeUserRepo) FindByRoleID(ctx context.Context, roleID uint) ([]*user.User, error) {
	var out []*user.User
	for userID, roleIDs := range r.userRoles {
		for _, id := range roleIDs {
			if id == roleID {
				out = append(out, r.snapshot(r.users[userID]))
				break
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error {
	for id, stored := range r.users {
		if stored.TenantID() == tenantID {
			delete(r.users, id)
			delete(r.userRoles, id)
			delete(r.userUnits, id)
		}
	}
	return nil
}

type fakeOrgUnitRepo struct {
	nextID    uint
	units     map[uint]*orgunit.OrgUnit
	deleted   map[uint]bool
	unitRoles map[uint]map[uint]bool
}

func newFakeOrgUnitRepo() *fakeOrgUnitRepo {
	return &fakeOrgUnitRepo{
		units:     map[uint]*orgunit.OrgUnit{},
		deleted:   map[uint]bool{},
		unitRoles: map[uint]map[uint]bool{},
	}
}

func (r *fakeOrgUnitRepo) snapshot(stored *orgunit.OrgUnit) *orgunit.OrgUnit {
	return orgunit.New(
		stored.TenantID(),
		stored.Name(),
		orgunit.WithID(stored.ID()),
		orgunit.WithParentID(stored.ParentID()),
		orgunit.WithCode(stored.Code()),
	)
}

func (r *fakeOrgUnitRepo) Create(ctx context.Context, unit *orgunit.OrgUnit) (*orgunit.OrgUnit, error) {
	r.nextID++
	stored := orgunit.New(
		unit.TenantID(),
		unit.Name(),
		orgunit.WithID(r.nextID),
		orgunit.WithParentID(unit.ParentID()),
		orgunit.WithCode(unit.Code()),
	)
	r.units[r.nextID] = stored
	return r.snapshot(stored), nil
}

func (r *fakeOrgUnitRepo) GetByID(ctx context.Context, id uint) (*orgunit.OrgUnit, error) {
	stored, ok := r.units[id]
	if !ok || r.deleted[id] {
		return nil, serrors.ErrOrgUnitNotFound
	}
	return r.snapshot(stored), nil
}

func (r *fakeOrgUnitRepo) Update(ctx context.Context, unit *orgunit.OrgUnit) (*orgunit.OrgUnit, error) {
	if _, ok := r.units[unit.ID()]; !ok {
		return nil, serrors.ErrOrgUnitNotFound
	}
	stored := orgunit.New(
		unit.TenantID(),
		unit.Name(),
		orgunit.WithID(unit.ID()),
		orgunit.WithParentID(unit.ParentID()),
		orgunit.WithCode(unit.Code()),
	)
	r.units[unit.ID()] = stored
	return r.snapshot(stored), nil
}

func (r *fakeOrgUnitRepo) SiblingCodes(ctx context.Context, parentID *uint) ([]orgunit.Code, error) {
	var out []orgunit.Code
	for _, stored := range r.units {
		// Soft-deleted units keep their ordinal burned, so they count too.
		if sameParent(stored.ParentID(), parentID) {
			out = append(out, stored.Code())
		}
	}
	return out, nil
}

func (r *fakeOrgUnitRepo) Descendants(ctx context.Context, code orgunit.Code) ([]*orgunit.OrgUnit, error) {
	var out []*orgunit.OrgUnit
	for id, stored := range r.units {
		if r.deleted[id] {
			continue
		}
		if stored.Code().IsDescendantOf(code) {
			out = append(out, r.snapshot(stored))
		}
	}
	return out, nil
}

func (r *fakeOrgUnitRepo) UpdateCodes(ctx context.Context, rewrites []orgunit.CodeRewrite) error {
	for _, rw := range rewrites {
		stored, ok := r.units[rw.UnitID]
		if !ok {
			return serrors.ErrOrgUnitNotFound
		}
		stored.SetParent(stored.ParentID(), rw.NewCode)
	}
	return nil
}

func (r *fakeOrgUnitRepo) SoftDelete(ctx context.Context, id uint) error {
	if _, ok := r.units[id]; !ok || r.deleted[id] {
		return serrors.ErrOrgUnitNotFound
	}
	r.deleted[id] = true
	return nil
}

func (r *fakeOrgUnitRepo) AssignRole(ctx context.Context, unitID, roleID uint) error {
	if r.unitRoles[unitID] == nil {
		r.unitRoles[unitID] = map[uint]bool{}
	}
	r.unitRoles[unitID][roleID] = true
	return nil
}

func (r *fakeOrgUnitRepo) RemoveRole(ctx context.Context, unitID, roleID uint) error {
	delete(r.unitRoles[unitID], roleID)
	return nil
}

func (r *fakeOrgUnitRepo) RoleIDs(ctx context.Context, unitIDs []uint) ([]uint, error) {
	seen := map[uint]struct{}{}
	var out []uint
	for _, unitID := range unitIDs {
		for roleID := range r.unitRoles[unitID] {
			if _, ok := seen[roleID]; ok {
				continue
			}
			seen[roleID] = struct{}{}
			out = append(out, roleID)
		}
	}
	return out, nil
}

type fakeTenantRepo struct {
	tenants map[uuid.UUID]*tenant.Tenant
	deleted map[uuid.UUID]bool
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: map[uuid.UUID]*tenant.Tenant{}, deleted: map[uuid.UUID]bool{}}
}

func (r *fakeTenantRepo) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.tenants[t.ID()] = t
	return t, nil
}

func (r *fakeTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok || r.deleted[id] {
		return nil, serrors.ErrTenantNotFound
	}
	return t, nil
}

func (r *fakeTenantRepo) Update(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	if _, ok := r.tenants[t.ID()]; !ok {
		return nil, serrors.ErrTenantNotFound
	}
	r.tenants[t.ID()] = t
	return t, nil
}

func (r *fakeTenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.tenants[id]; !ok {
		return serrors.ErrTenantNotFound
	}
	r.deleted[id] = true
	return nil
}

func (r *fakeTenantRepo) ExistsByAdminPhone(ctx context.Context, phone string) (bool, error) {
	for _, t := range r.tenants {
		if t.AdminPhone() == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTenantRepo) ExistsByAdminEmail(ctx context.Context, email string) (bool, error) {
	for _, t := range r.tenants {
		if t.AdminEmail() == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeEditionRepo struct {
	defaultEdition *edition.Edition
}

func (r *fakeEditionRepo) GetDefault(ctx context.Context) (*edition.Edition, error) {
	if r.defaultEdition == nil {
		return nil, persistence.ErrEditionNotFound
	}
	return r.defaultEdition, nil
}

func (r *fakeEditionRepo) GetByID(ctx context.Context, id uuid.UUID) (*edition.Edition, error) {
	if r.defaultEdition != nil && r.defaultEdition.ID == id {
		return r.defaultEdition, nil
	}
	return nil, persistence.ErrEditionNotFound
}

func (r *fakeEditionRepo) Save(ctx context.Context, e *edition.Edition) error {
	r.defaultEdition = e
	return nil
}
