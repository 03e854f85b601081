package composables

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/ferrumlabs/backoffice/pkg/constants"
)

var ErrNoTenant = errors.New("no tenant found in context")

// WithTenantID binds the current tenant for the remainder of the scope. The
// prior context value is restored naturally when the caller's context goes out
// of scope, so every exit path (including panics) leaves the outer tenant
// untouched.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.TenantIDKey)
	if v == nil {
		return uuid.Nil, ErrNoTenant
	}
	return v.(uuid.UUID), nil
}

// ApplyTenantFilter points all tenant-filtered queries on tx at the current
// tenant. The filter itself is a row-level security policy reading
// app.current_tenant; scoping the setting to the transaction (is_local=true)
// releases it on commit or rollback.
func ApplyTenantFilter(ctx context.Context, tx pgx.Tx) error {
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("tenant filter requires tenant in context: %w", err)
	}
	_, err = tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String())
	if err != nil {
		return fmt.Errorf("failed to set tenant filter: %w", err)
	}
	return nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger.(*logrus.Entry)
}
