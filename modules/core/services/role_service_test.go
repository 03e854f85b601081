package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

type roleFixture struct {
	tenantID uuid.UUID
	roles    *fakeRoleRepo
	users    *fakeUserRepo
	svc      *RoleService
}

func newRoleFixture() *roleFixture {
	roles := newFakeRoleRepo()
	users := newFakeUserRepo()
	permissions := NewPermissionService(newFakeFeatureStore(), roles, newFakeOrgUnitRepo())
	return &roleFixture{
		tenantID: uuid.New(),
		roles:    roles,
		users:    users,
		svc:      NewRoleService(roles, users, permissions, quietBus()),
	}
}

func (f *roleFixture) newRole(name string) *role.Role {
	return role.New(name, role.WithTenantID(f.tenantID))
}

func TestRoleCreateAndGrant(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	created, err := f.svc.CreateAndGrant(ctx, f.newRole("Support"), []string{"User.Read", "Role.Read"})
	require.NoError(t, err)
	assert.Equal(t, "Support", created.Name())
	assert.ElementsMatch(t, []string{"User.Read", "Role.Read"}, created.Permissions())
}

func TestRoleCreateAndGrant_DuplicateNameWithinTenant(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	_, err := f.svc.CreateAndGrant(ctx, f.newRole("Support"), nil)
	require.NoError(t, err)

	// Name comparison is case-insensitive after trimming.
	_, err = f.svc.CreateAndGrant(ctx, f.newRole("  SUPPORT "), nil)
	assert.ErrorIs(t, err, serrors.ErrDuplicateRoleName)
}

func TestRoleCreateAndGrant_UnknownPermissionName(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	_, err := f.svc.CreateAndGrant(ctx, f.newRole("Support"), []string{"No.Such.Permission"})
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindValidation))
}

func TestRoleUpdateAndGrant_ReplacesGrantSet(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	created, err := f.svc.CreateAndGrant(ctx, f.newRole("Support"), []string{"User.Read", "User.Update"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateAndGrant(ctx, created.ID(), "Support L2", "escalations", []string{"User.Read", "Role.Read"})
	require.NoError(t, err)
	assert.Equal(t, "Support L2", updated.Name())
	assert.Equal(t, "escalations", updated.Description())
	assert.ElementsMatch(t, []string{"User.Read", "Role.Read"}, updated.Permissions(),
		"grants absent from the new set are revoked, new ones added")
}

func TestRoleUpdateAndGrant_MissingRole(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	_, err := f.svc.UpdateAndGrant(ctx, 99, "X", "", nil)
	assert.ErrorIs(t, err, serrors.ErrRoleNotFound)
}

func TestRoleDeleteAndDetachUsers(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	created, err := f.svc.CreateAndGrant(ctx, f.newRole("Support"), nil)
	require.NoError(t, err)

	holder, err := f.users.Create(ctx, user.New("alice", user.WithTenantID(f.tenantID)))
	require.NoError(t, err)
	require.NoError(t, f.users.AddRole(ctx, holder.ID(), created.ID()))

	require.NoError(t, f.svc.DeleteAndDetachUsers(ctx, created.ID()))

	_, err = f.svc.GetByID(ctx, created.ID())
	assert.ErrorIs(t, err, serrors.ErrRoleNotFound)
	after, err := f.users.GetByID(ctx, holder.ID())
	require.NoError(t, err)
	assert.Empty(t, after.RoleIDs(), "every holder loses the role")
}

func TestRoleDeleteAndDetachUsers_MissingRoleHasNoSideEffects(t *testing.T) {
	f := newRoleFixture()
	ctx := tenantContext(f.tenantID)

	holder, err := f.users.Create(ctx, user.New("alice", user.WithTenantID(f.tenantID)))
	require.NoError(t, err)
	other, err := f.svc.CreateAndGrant(ctx, f.newRole("Other"), nil)
	require.NoError(t, err)
	require.NoError(t, f.users.AddRole(ctx, holder.ID(), other.ID()))

	err = f.svc.DeleteAndDetachUsers(ctx, 99)
	assert.ErrorIs(t, err, serrors.ErrRoleNotFound)

	after, err := f.users.GetByID(ctx, holder.ID())
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID()}, after.RoleIDs())
}
