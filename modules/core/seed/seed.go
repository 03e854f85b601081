package seed

import (
	"context"

	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/edition"
	"github.com/ferrumlabs/backoffice/modules/core/features"
	"github.com/ferrumlabs/backoffice/modules/core/infrastructure/persistence"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/configuration"
)

// Func is one idempotent seeding step. Steps run inside a shared transaction;
// re-running the seeder against an already seeded database is a no-op.
type Func func(ctx context.Context) error

// Run executes every step in one transaction against the pool on ctx.
func Run(ctx context.Context, funcs ...Func) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		for _, f := range funcs {
			if err := f(txCtx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Features upserts the compiled-in feature registry so resolution can fall
// back to registry defaults for tenants without explicit values.
func Features(store *persistence.FeatureStore) Func {
	return func(ctx context.Context) error {
		configuration.Use().Logger().Infof("Syncing %d feature defaults", len(features.All()))
		return store.SyncDefaults(ctx, features.All())
	}
}

var defaultEditionID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// DefaultEdition ensures a default edition exists for tenant provisioning to
// assign to new tenants.
func DefaultEdition(editions edition.Repository) Func {
	return func(ctx context.Context) error {
		logger := configuration.Use().Logger()
		if existing, err := editions.GetDefault(ctx); err == nil && existing != nil {
			logger.Infof("Default edition already exists: %s", existing.Name)
			return nil
		}
		logger.Infof("Creating default edition")
		return editions.Save(ctx, &edition.Edition{
			ID:          defaultEditionID,
			Name:        "standard",
			DisplayName: "Standard",
			IsDefault:   true,
		})
	}
}
