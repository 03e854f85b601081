package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ferrumlabs/backoffice/internal/server"
	"github.com/ferrumlabs/backoffice/modules/core/infrastructure/persistence"
	"github.com/ferrumlabs/backoffice/modules/core/seed"
	"github.com/ferrumlabs/backoffice/modules/core/services"
	"github.com/ferrumlabs/backoffice/pkg/cache"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/configuration"
	"github.com/ferrumlabs/backoffice/pkg/eventbus"
	"github.com/ferrumlabs/backoffice/pkg/sms"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:          "backoffice",
		Short:        "Tenant provisioning and access-control service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), seedCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newPool(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgxpool.New(ctx, conf.Database.ConnectionString())
}

func buildServices(conf *configuration.Configuration, logger *logrus.Logger) server.Services {
	c := cache.NewRedisCache(cache.NewRedisClient(conf.RedisURL))
	publisher := eventbus.NewEventPublisher(logger)

	tenantRepo := persistence.NewTenantRepository()
	editionRepo := persistence.NewEditionRepository()
	roleRepo := persistence.NewRoleRepository()
	userRepo := persistence.NewUserRepository()
	orgUnitRepo := persistence.NewOrgUnitRepository()
	featureStore := persistence.NewFeatureStore(c)

	permissionService := services.NewPermissionService(featureStore, roleRepo, orgUnitRepo)
	roleService := services.NewRoleService(roleRepo, userRepo, permissionService, publisher)
	orgUnitService := services.NewOrgUnitService(orgUnitRepo, roleRepo, publisher)
	contactCache := services.NewContactCache(c)
	otpService := services.NewOtpService(c, sms.NewHTTPGateway(conf.Sms.ServerAddress, conf.Sms.AppName), conf.Sms)
	tenantService := services.NewTenantService(
		tenantRepo, editionRepo, userRepo,
		roleService, orgUnitService, permissionService,
		contactCache, conf.Provisioning, publisher,
	)
	authService := services.NewAuthService(userRepo, otpService, contactCache, featureStore)

	return server.Services{
		Tenants:     tenantService,
		OrgUnits:    orgUnitService,
		Roles:       roleService,
		Permissions: permissionService,
		Auth:        authService,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := newPool(ctx, conf)
			if err != nil {
				return err
			}
			defer pool.Close()

			srv := server.New(pool, logger, buildServices(conf, logger))
			return srv.ListenAndServe(ctx, conf.ServerPort)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert feature defaults and the default edition",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()

			pool, err := newPool(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer pool.Close()

			c := cache.NewRedisCache(cache.NewRedisClient(conf.RedisURL))
			ctx := composables.WithPool(cmd.Context(), pool)
			return seed.Run(ctx,
				seed.Features(persistence.NewFeatureStore(c)),
				seed.DefaultEdition(persistence.NewEditionRepository()),
			)
		},
	}
}
