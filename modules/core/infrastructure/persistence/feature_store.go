package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/feature"
	"github.com/ferrumlabs/backoffice/pkg/cache"
	"github.com/ferrumlabs/backoffice/pkg/composables"
)

var ErrFeatureNotFound = errors.New("feature not found")

const featureValueCacheExpiry = 10 * time.Minute

// FeatureStore resolves per-tenant feature values with a redis read-through.
// Resolution order: tenant setting, then the feature's default.
type FeatureStore struct {
	cache cache.Cache
}

func NewFeatureStore(c cache.Cache) *FeatureStore {
	return &FeatureStore{cache: c}
}

var _ feature.Store = (*FeatureStore)(nil)

func featureValueCacheKey(tenantID uuid.UUID, name string) string {
	return fmt.Sprintf("feature:%s:%s", tenantID, name)
}

func (s *FeatureStore) IsEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, featureValueCacheKey(tenantID, name), 0); err == nil {
			return cached == "1", nil
		}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var enabled bool
	err = tx.QueryRow(ctx, `
		SELECT enabled FROM tenant_feature_values
		WHERE tenant_id = $1 AND name = $2
	`, tenantID.String(), name).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `SELECT default_value FROM features WHERE name = $1`, name).Scan(&enabled)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrFeatureNotFound
		}
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to resolve feature value")
	}

	if s.cache != nil {
		value := "0"
		if enabled {
			value = "1"
		}
		// Best effort; a cold cache only costs a query.
		_ = s.cache.Set(ctx, featureValueCacheKey(tenantID, name), value, featureValueCacheExpiry)
	}
	return enabled, nil
}

func (s *FeatureStore) SetValue(ctx context.Context, tenantID uuid.UUID, name string, enabled bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO tenant_feature_values (tenant_id, name, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, name) DO UPDATE SET enabled = $3
	`, tenantID.String(), name, enabled)
	if err != nil {
		return errors.Wrap(err, "failed to set feature value")
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, featureValueCacheKey(tenantID, name))
	}
	return nil
}

// SyncDefaults upserts the feature registry into the store.
func (s *FeatureStore) SyncDefaults(ctx context.Context, all []*feature.Feature) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	for _, f := range all {
		if _, err := tx.Exec(ctx, `
			INSERT INTO features (id, name, default_value)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET default_value = $3
		`, f.ID.String(), f.Name, f.DefaultValue); err != nil {
			return errors.Wrapf(err, "failed to sync feature %s", f.Name)
		}
	}
	return nil
}
