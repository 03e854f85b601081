package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

type orgUnitFixture struct {
	tenantID uuid.UUID
	units    *fakeOrgUnitRepo
	roles    *fakeRoleRepo
	svc      *OrgUnitService
}

func newOrgUnitFixture() *orgUnitFixture {
	units := newFakeOrgUnitRepo()
	roles := newFakeRoleRepo()
	return &orgUnitFixture{
		tenantID: uuid.New(),
		units:    units,
		roles:    roles,
		svc:      NewOrgUnitService(units, roles, quietBus()),
	}
}

func TestOrgUnitCreate_AssignsSequentialSiblingCodes(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	first, err := f.svc.Create(ctx, nil, "Engineering")
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00001"), first.Code())

	second, err := f.svc.Create(ctx, nil, "Sales")
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00002"), second.Code())

	firstID := first.ID()
	child, err := f.svc.Create(ctx, &firstID, "Backend")
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00001.00001"), child.Code())

	childID := child.ID()
	grandchild, err := f.svc.Create(ctx, &childID, "Platform")
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00001.00001.00001"), grandchild.Code())
}

func TestOrgUnitCreate_DeletedSiblingOrdinalIsNotReused(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	_, err := f.svc.Create(ctx, nil, "First")
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, nil, "Second")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, second.ID()))

	third, err := f.svc.Create(ctx, nil, "Third")
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00003"), third.Code())
}

func TestOrgUnitCreate_ParentFromAnotherTenantIsInvisible(t *testing.T) {
	f := newOrgUnitFixture()

	foreign, err := f.svc.Create(tenantContext(uuid.New()), nil, "Foreign")
	require.NoError(t, err)

	foreignID := foreign.ID()
	_, err = f.svc.Create(tenantContext(f.tenantID), &foreignID, "Orphan")
	assert.ErrorIs(t, err, serrors.ErrOrgUnitNotFound)
}

func TestOrgUnitUpdate_ReparentCascadesToDescendants(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	a, err := f.svc.Create(ctx, nil, "A")
	require.NoError(t, err)
	aID := a.ID()
	b, err := f.svc.Create(ctx, &aID, "B")
	require.NoError(t, err)
	bID := b.ID()
	c, err := f.svc.Create(ctx, &bID, "C")
	require.NoError(t, err)
	d, err := f.svc.Create(ctx, nil, "D")
	require.NoError(t, err)
	dID := d.ID()

	moved, err := f.svc.Update(ctx, a.ID(), &dID, "A")
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00002.00001"), moved.Code())

	bAfter, err := f.svc.GetByID(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00002.00001.00001"), bAfter.Code())

	cAfter, err := f.svc.GetByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00002.00001.00001.00001"), cAfter.Code())
}

func TestOrgUnitUpdate_RenameWithoutMoveKeepsCode(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	a, err := f.svc.Create(ctx, nil, "Before")
	require.NoError(t, err)

	renamed, err := f.svc.Update(ctx, a.ID(), nil, "After")
	require.NoError(t, err)
	assert.Equal(t, "After", renamed.Name())
	assert.Equal(t, a.Code(), renamed.Code())
}

func TestOrgUnitUpdate_RejectsCyclicReparent(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	a, err := f.svc.Create(ctx, nil, "A")
	require.NoError(t, err)
	aID := a.ID()
	b, err := f.svc.Create(ctx, &aID, "B")
	require.NoError(t, err)
	bID := b.ID()
	c, err := f.svc.Create(ctx, &bID, "C")
	require.NoError(t, err)
	cID := c.ID()

	_, err = f.svc.Update(ctx, a.ID(), &aID, "A")
	assert.ErrorIs(t, err, serrors.ErrCyclicReparent, "moving under itself")

	_, err = f.svc.Update(ctx, a.ID(), &cID, "A")
	assert.ErrorIs(t, err, serrors.ErrCyclicReparent, "moving under a transitive descendant")
}

func TestOrgUnitDelete_DescendantsRemain(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	a, err := f.svc.Create(ctx, nil, "A")
	require.NoError(t, err)
	aID := a.ID()
	b, err := f.svc.Create(ctx, &aID, "B")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.ID()))

	_, err = f.svc.GetByID(ctx, a.ID())
	assert.ErrorIs(t, err, serrors.ErrOrgUnitNotFound)
	got, err := f.svc.GetByID(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, orgunit.Code("00001.00001"), got.Code())
}

func TestOrgUnitRoles_EffectiveRolesAcrossDescendants(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	parent, err := f.svc.Create(ctx, nil, "Parent")
	require.NoError(t, err)
	parentID := parent.ID()
	child, err := f.svc.Create(ctx, &parentID, "Child")
	require.NoError(t, err)

	parentRole, err := f.roles.Create(ctx, role.New("Managers", role.WithTenantID(f.tenantID)))
	require.NoError(t, err)
	childRole, err := f.roles.Create(ctx, role.New("Staff", role.WithTenantID(f.tenantID)))
	require.NoError(t, err)

	require.NoError(t, f.svc.AssignRole(ctx, parent.ID(), parentRole.ID()))
	require.NoError(t, f.svc.AssignRole(ctx, child.ID(), childRole.ID()))

	direct, err := f.svc.GetEffectiveRoles(ctx, parent.ID(), false)
	require.NoError(t, err)
	require.Len(t, direct, 1)
	assert.Equal(t, "Managers", direct[0].Name())

	all, err := f.svc.GetEffectiveRoles(ctx, parent.ID(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrgUnitAssignRole_UnknownRole(t *testing.T) {
	f := newOrgUnitFixture()
	ctx := tenantContext(f.tenantID)

	unit, err := f.svc.Create(ctx, nil, "Unit")
	require.NoError(t, err)

	err = f.svc.AssignRole(ctx, unit.ID(), 42)
	assert.ErrorIs(t, err, serrors.ErrRoleNotFound)
}
