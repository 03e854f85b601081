package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/tenant"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

const (
	tenantFindQuery = `SELECT id, name, edition_id, admin_phone, admin_email, is_active, created_at, updated_at, deleted_at FROM tenants`
)

type TenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &TenantRepository{}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	tenants, err := r.queryTenants(ctx, tenantFindQuery+" WHERE id = $1 AND deleted_at IS NULL", id.String())
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, serrors.ErrTenantNotFound
	}
	return tenants[0], nil
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO tenants (id, name, edition_id, admin_phone, admin_email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		t.ID().String(),
		t.Name(),
		uuidPointerToNullString(t.EditionID()),
		t.AdminPhone(),
		strings.ToLower(t.AdminEmail()),
		t.IsActive(),
		t.CreatedAt(),
		t.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to insert tenant")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE tenants
		SET name = $1, edition_id = $2, is_active = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	tag, err := tx.Exec(ctx, query, t.Name(), uuidPointerToNullString(t.EditionID()), t.IsActive(), time.Now(), t.ID().String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to update tenant")
	}
	if tag.RowsAffected() == 0 {
		return nil, serrors.ErrTenantNotFound
	}
	return r.GetByID(ctx, t.ID())
}

func (r *TenantRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE tenants
		SET deleted_at = now(), is_active = false, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String())
	if err != nil {
		return errors.Wrap(err, "failed to soft-delete tenant")
	}
	if tag.RowsAffected() == 0 {
		return serrors.ErrTenantNotFound
	}
	return nil
}

func (r *TenantRepository) ExistsByAdminPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM tenants WHERE admin_phone = $1)", phone)
}

func (r *TenantRepository) ExistsByAdminEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM tenants WHERE lower(admin_email) = lower($1))", email)
}

func (r *TenantRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check tenant uniqueness")
	}
	return exists, nil
}

func (r *TenantRepository) queryTenants(ctx context.Context, query string, args ...any) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tenants")
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		var (
			idStr      string
			name       string
			editionID  sql.NullString
			adminPhone string
			adminEmail string
			isActive   bool
			createdAt  time.Time
			updatedAt  time.Time
			deletedAt  sql.NullTime
		)
		if err := rows.Scan(&idStr, &name, &editionID, &adminPhone, &adminEmail, &isActive, &createdAt, &updatedAt, &deletedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant row")
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		opts := []tenant.Option{
			tenant.WithID(id),
			tenant.WithAdminPhone(adminPhone),
			tenant.WithAdminEmail(adminEmail),
			tenant.WithIsActive(isActive),
			tenant.WithCreatedAt(createdAt),
			tenant.WithUpdatedAt(updatedAt),
		}
		if editionID.Valid {
			eid, err := uuid.Parse(editionID.String)
			if err != nil {
				return nil, err
			}
			opts = append(opts, tenant.WithEditionID(&eid))
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			opts = append(opts, tenant.WithDeletedAt(&t))
		}
		tenants = append(tenants, tenant.New(name, opts...))
	}
	return tenants, rows.Err()
}

func uuidPointerToNullString(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}
