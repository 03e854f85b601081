package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

const userFindQuery = `SELECT id, tenant_id, username, first_name, last_name, email, phone, password_hash, is_active, expires_at, created_at, updated_at FROM users`

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id uint
	err = tx.QueryRow(ctx, `
		INSERT INTO users (tenant_id, username, first_name, last_name, email, phone, password_hash, is_active, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		u.TenantID().String(),
		u.Username(),
		u.FirstName(),
		u.LastName(),
		u.Email(),
		u.Phone(),
		u.PasswordHash(),
		u.IsActive(),
		timePointerToNullTime(u.ExpiresAt()),
		u.CreatedAt(),
		u.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, phone = $4, password_hash = $5, is_active = $6, expires_at = $7, updated_at = $8
		WHERE id = $9
	`,
		u.FirstName(),
		u.LastName(),
		u.Email(),
		u.Phone(),
		u.PasswordHash(),
		u.IsActive(),
		timePointerToNullTime(u.ExpiresAt()),
		time.Now(),
		u.ID(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return nil, serrors.ErrUserNotFound
	}
	return r.GetByID(ctx, u.ID())
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, serrors.ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE tenant_id = $1 AND username = $2", tenantID.String(), username)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, serrors.ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE tenant_id = $1 AND phone = $2", tenantID.String(), phone)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, serrors.ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) AddRole(ctx context.Context, userID, roleID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, roleID)
	return errors.Wrap(err, "failed to add role to user")
}

func (r *UserRepository) RemoveRole(ctx context.Context, userID, roleID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return errors.Wrap(err, "failed to remove role from user")
}

func (r *UserRepository) AddToOrgUnit(ctx context.Context, userID, orgUnitID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO user_org_units (user_id, org_unit_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, orgUnitID)
	return errors.Wrap(err, "failed to add user to org unit")
}

func (r *UserRepository) FindByRoleID(ctx context.Context, roleID uint) ([]*user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, `
		SELECT u.id, u.tenant_id, u.username, u.first_name, u.last_name, u.email, u.phone, u.password_hash, u.is_active, u.expires_at, u.created_at, u.updated_at
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE u.tenant_id = $1 AND ur.role_id = $2
		ORDER BY u.id
	`, tenantID.String(), roleID)
}

func (r *UserRepository) DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM user_roles WHERE user_id IN (SELECT id FROM users WHERE tenant_id = $1)
	`, tenantID.String()); err != nil {
		return errors.Wrap(err, "failed to delete tenant user roles")
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM user_org_units WHERE user_id IN (SELECT id FROM users WHERE tenant_id = $1)
	`, tenantID.String()); err != nil {
		return errors.Wrap(err, "failed to delete tenant user org unit links")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE tenant_id = $1`, tenantID.String()); err != nil {
		return errors.Wrap(err, "failed to delete tenant users")
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}

	type userRow struct {
		id           uint
		tenantID     uuid.UUID
		username     string
		firstName    string
		lastName     string
		email        string
		phone        string
		passwordHash string
		isActive     bool
		expiresAt    sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
	}
	var scanned []userRow
	for rows.Next() {
		var (
			row         userRow
			tenantIDStr string
		)
		if err := rows.Scan(
			&row.id, &tenantIDStr, &row.username, &row.firstName, &row.lastName,
			&row.email, &row.phone, &row.passwordHash, &row.isActive,
			&row.expiresAt, &row.createdAt, &row.updatedAt,
		); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan user row")
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

	users := make([]*user.User, 0, len(scanned))
	for _, row := range scanned {
		roleIDs, err := r.linkedIDs(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, row.id)
		if err != nil {
			return nil, err
		}
		orgUnitIDs, err := r.linkedIDs(ctx, `SELECT org_unit_id FROM user_org_units WHERE user_id = $1`, row.id)
		if err != nil {
			return nil, err
		}
		opts := []user.Option{
			user.WithID(row.id),
			user.WithTenantID(row.tenantID),
			user.WithName(row.firstName, row.lastName),
			user.WithEmail(row.email),
			user.WithPhone(row.phone),
			user.WithPasswordHash(row.passwordHash),
			user.WithIsActive(row.isActive),
			user.WithRoleIDs(roleIDs),
			user.WithOrgUnitIDs(orgUnitIDs),
			user.WithCreatedAt(row.createdAt),
			user.WithUpdatedAt(row.updatedAt),
		}
		if row.expiresAt.Valid {
			t := row.expiresAt.Time
			opts = append(opts, user.WithExpiresAt(&t))
		}
		users = append(users, user.New(row.username, opts...))
	}
	return users, nil
}

func (r *UserRepository) linkedIDs(ctx context.Context, query string, userID uint) ([]uint, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user links")
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func timePointerToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
