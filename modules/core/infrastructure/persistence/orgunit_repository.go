package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/orgunit"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

const orgUnitFindQuery = `SELECT id, tenant_id, parent_id, name, code, created_at, updated_at, deleted_at FROM org_units`

type OrgUnitRepository struct{}

func NewOrgUnitRepository() orgunit.Repository {
	return &OrgUnitRepository{}
}

// IsSiblingCodeConflict reports whether err is the unique-index violation two
// concurrent creations under the same parent race into. Callers reassign the
// code and retry.
func IsSiblingCodeConflict(err error) bool {
	return isUniqueViolation(err)
}

func (r *OrgUnitRepository) Create(ctx context.Context, unit *orgunit.OrgUnit) (*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id uint
	err = tx.QueryRow(ctx, `
		INSERT INTO org_units (tenant_id, parent_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, unit.TenantID().String(), uintPointerToNullInt64(unit.ParentID()), unit.Name(), string(unit.Code()), unit.CreatedAt(), unit.UpdatedAt()).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert org unit")
	}
	return r.GetByID(ctx, id)
}

func (r *OrgUnitRepository) GetByID(ctx context.Context, id uint) (*orgunit.OrgUnit, error) {
	units, err := r.queryUnits(ctx, orgUnitFindQuery+" WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, serrors.ErrOrgUnitNotFound
	}
	return units[0], nil
}

func (r *OrgUnitRepository) Update(ctx context.Context, unit *orgunit.OrgUnit) (*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE org_units
		SET parent_id = $1, name = $2, code = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`, uintPointerToNullInt64(unit.ParentID()), unit.Name(), string(unit.Code()), time.Now(), unit.ID())
	if err != nil {
		return nil, errors.Wrap(err, "failed to update org unit")
	}
	if tag.RowsAffected() == 0 {
		return nil, serrors.ErrOrgUnitNotFound
	}
	return r.GetByID(ctx, unit.ID())
}

func (r *OrgUnitRepository) SiblingCodes(ctx context.Context, parentID *uint) ([]orgunit.Code, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	// Soft-deleted siblings stay in the result on purpose: their ordinals are
	// burned and must never be reassigned.
	rows, err := tx.Query(ctx, `
		SELECT code FROM org_units
		WHERE tenant_id = $1 AND COALESCE(parent_id, 0) = COALESCE($2, 0)
	`, tenantID.String(), uintPointerToNullInt64(parentID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sibling codes")
	}
	defer rows.Close()

	var codes []orgunit.Code
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, orgunit.Code(code))
	}
	return codes, rows.Err()
}

func (r *OrgUnitRepository) Descendants(ctx context.Context, code orgunit.Code) ([]*orgunit.OrgUnit, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryUnits(ctx,
		orgUnitFindQuery+" WHERE tenant_id = $1 AND code LIKE $2 AND deleted_at IS NULL ORDER BY code",
		tenantID.String(), string(code)+".%",
	)
}

func (r *OrgUnitRepository) UpdateCodes(ctx context.Context, rewrites []orgunit.CodeRewrite) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	for _, rw := range rewrites {
		tag, err := tx.Exec(ctx, `
			UPDATE org_units SET code = $1, updated_at = now() WHERE id = $2
		`, string(rw.NewCode), rw.UnitID)
		if err != nil {
			return errors.Wrapf(err, "failed to rewrite code for unit %d", rw.UnitID)
		}
		if tag.RowsAffected() == 0 {
			return errors.Errorf("code rewrite targeted missing unit %d", rw.UnitID)
		}
	}
	return nil
}

func (r *OrgUnitRepository) SoftDelete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE org_units SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return errors.Wrap(err, "failed to soft-delete org unit")
	}
	if tag.RowsAffected() == 0 {
		return serrors.ErrOrgUnitNotFound
	}
	return nil
}

func (r *OrgUnitRepository) AssignRole(ctx context.Context, unitID, roleID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO org_unit_roles (org_unit_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (org_unit_id, role_id) DO UPDATE SET deleted_at = NULL
	`, unitID, roleID)
	return errors.Wrap(err, "failed to assign role to org unit")
}

func (r *OrgUnitRepository) RemoveRole(ctx context.Context, unitID, roleID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE org_unit_roles SET deleted_at = now()
		WHERE org_unit_id = $1 AND role_id = $2 AND deleted_at IS NULL
	`, unitID, roleID)
	return errors.Wrap(err, "failed to remove role from org unit")
}

func (r *OrgUnitRepository) RoleIDs(ctx context.Context, unitIDs []uint) ([]uint, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(unitIDs))
	for i, id := range unitIDs {
		ids[i] = int64(id)
	}
	rows, err := tx.Query(ctx, `
		SELECT DISTINCT role_id FROM org_unit_roles
		WHERE org_unit_id = ANY($1) AND deleted_at IS NULL
	`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query org unit roles")
	}
	defer rows.Close()

	var roleIDs []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, id)
	}
	return roleIDs, rows.Err()
}

func (r *OrgUnitRepository) queryUnits(ctx context.Context, query string, args ...any) ([]*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query org units")
	}
	defer rows.Close()

	var units []*orgunit.OrgUnit
	for rows.Next() {
		var (
			id          uint
			tenantIDStr string
			parentID    sql.NullInt64
			name        string
			code        string
			createdAt   time.Time
			updatedAt   time.Time
			deletedAt   sql.NullTime
		)
		if err := rows.Scan(&id, &tenantIDStr, &parentID, &name, &code, &createdAt, &updatedAt, &deletedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan org unit row")
		}
		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			return nil, err
		}
		opts := []orgunit.Option{
			orgunit.WithID(id),
			orgunit.WithCode(orgunit.Code(code)),
			orgunit.WithCreatedAt(createdAt),
			orgunit.WithUpdatedAt(updatedAt),
		}
		if parentID.Valid {
			pid := uint(parentID.Int64)
			opts = append(opts, orgunit.WithParentID(&pid))
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			opts = append(opts, orgunit.WithDeletedAt(&t))
		}
		units = append(units, orgunit.New(tenantID, name, opts...))
	}
	return units, rows.Err()
}

func uintPointerToNullInt64(v *uint) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
