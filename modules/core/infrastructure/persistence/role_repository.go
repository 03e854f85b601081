package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/role"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

const (
	roleFindQuery = `SELECT id, tenant_id, name, description, created_at, updated_at FROM roles`

	uniqueViolationCode = "23505"
)

type RoleRepository struct{}

func NewRoleRepository() role.Repository {
	return &RoleRepository{}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (r *RoleRepository) Create(ctx context.Context, data *role.Role) (*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id uint
	err = tx.QueryRow(ctx, `
		INSERT INTO roles (tenant_id, name, normalized_name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, data.TenantID().String(), data.Name(), data.NormalizedName(), data.Description(), data.CreatedAt(), data.UpdatedAt()).Scan(&id)
	if isUniqueViolation(err) {
		return nil, serrors.ErrDuplicateRoleName
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert role")
	}
	return r.GetByID(ctx, id)
}

func (r *RoleRepository) Update(ctx context.Context, data *role.Role) (*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE roles
		SET name = $1, normalized_name = $2, description = $3, updated_at = $4
		WHERE id = $5
	`, data.Name(), data.NormalizedName(), data.Description(), time.Now(), data.ID())
	if isUniqueViolation(err) {
		return nil, serrors.ErrDuplicateRoleName
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update role")
	}
	if tag.RowsAffected() == 0 {
		return nil, serrors.ErrRoleNotFound
	}
	return r.GetByID(ctx, data.ID())
}

func (r *RoleRepository) GetByID(ctx context.Context, id uint) (*role.Role, error) {
	roles, err := r.queryRoles(ctx, roleFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, serrors.ErrRoleNotFound
	}
	return roles[0], nil
}

func (r *RoleRepository) GetByNormalizedName(ctx context.Context, normalizedName string) (*role.Role, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := r.queryRoles(ctx, roleFindQuery+" WHERE tenant_id = $1 AND normalized_name = $2", tenantID.String(), normalizedName)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, serrors.ErrRoleNotFound
	}
	return roles[0], nil
}

func (r *RoleRepository) GetAll(ctx context.Context) ([]*role.Role, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryRoles(ctx, roleFindQuery+" WHERE tenant_id = $1 ORDER BY id", tenantID.String())
}

func (r *RoleRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to delete role grants")
	}
	if _, err := tx.Exec(ctx, `UPDATE org_unit_roles SET deleted_at = now() WHERE role_id = $1 AND deleted_at IS NULL`, id); err != nil {
		return errors.Wrap(err, "failed to detach role from org units")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete role")
	}
	if tag.RowsAffected() == 0 {
		return serrors.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepository) SetPermissions(ctx context.Context, roleID uint, names []string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return errors.Wrap(err, "failed to revoke role grants")
	}
	for _, name := range names {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_name)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, roleID, name); err != nil {
			return errors.Wrapf(err, "failed to grant %s", name)
		}
	}
	return nil
}

func (r *RoleRepository) Permissions(ctx context.Context, roleID uint) ([]string, error) {
	return r.PermissionsForRoles(ctx, []uint{roleID})
}

func (r *RoleRepository) PermissionsForRoles(ctx context.Context, roleIDs []uint) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(roleIDs))
	for i, id := range roleIDs {
		ids[i] = int64(id)
	}
	rows, err := tx.Query(ctx, `
		SELECT DISTINCT permission_name FROM role_permissions WHERE role_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query role grants")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *RoleRepository) queryRoles(ctx context.Context, query string, args ...any) ([]*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query roles")
	}

	type roleRow struct {
		id          uint
		tenantID    uuid.UUID
		name        string
		description string
		createdAt   time.Time
		updatedAt   time.Time
	}
	var scanned []roleRow
	for rows.Next() {
		var (
			row         roleRow
			tenantIDStr string
		)
		if err := rows.Scan(&row.id, &tenantIDStr, &row.name, &row.description, &row.createdAt, &row.updatedAt); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan role row")
		}
		if row.tenantID, err = uuid.Parse(tenantIDStr); err != nil {
			rows.Close()
			return nil, err
		}
		scanned = append(scanned, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Grants are loaded after the role rows are drained; the transaction's
	// connection handles one query at a time.
	roles := make([]*role.Role, 0, len(scanned))
	for _, row := range scanned {
		permissions, err := r.Permissions(ctx, row.id)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role.New(
			row.name,
			role.WithID(row.id),
			role.WithTenantID(row.tenantID),
			role.WithDescription(row.description),
			role.WithPermissions(permissions),
			role.WithCreatedAt(row.createdAt),
			role.WithUpdatedAt(row.updatedAt),
		))
	}
	return roles, nil
}
