package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ferrumlabs/backoffice/modules/core/services"
	"github.com/ferrumlabs/backoffice/pkg/composables"
)

// Services bundles the service layer the HTTP surface delegates to.
type Services struct {
	Tenants     *services.TenantService
	OrgUnits    *services.OrgUnitService
	Roles       *services.RoleService
	Permissions *services.PermissionService
	Auth        *services.AuthService
}

type Server struct {
	pool     *pgxpool.Pool
	logger   *logrus.Logger
	services Services
	router   *mux.Router
}

func New(pool *pgxpool.Pool, logger *logrus.Logger, svc Services) *Server {
	s := &Server{
		pool:     pool,
		logger:   logger,
		services: svc,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestContext)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Host-side surface: no tenant scope.
	r.HandleFunc("/tenants", s.handleCreateTenant).Methods(http.MethodPost)
	r.HandleFunc("/tenants/{id}", s.handleGetTenant).Methods(http.MethodGet)
	r.HandleFunc("/tenants/{id}", s.handleDeleteTenant).Methods(http.MethodDelete)
	r.HandleFunc("/tenants/{id}/active", s.handleSetTenantActive).Methods(http.MethodPatch)

	// Auth surface: SMS routes find their tenant by phone, the password route
	// takes the tenant header.
	r.HandleFunc("/auth/sms/request", s.handleSmsRequest).Methods(http.MethodPost)
	r.HandleFunc("/auth/sms/verify", s.handleSmsVerify).Methods(http.MethodPost)
	r.Handle("/auth/password", s.tenantScoped(s.handlePasswordLogin)).Methods(http.MethodPost)

	// Tenant-side surface: every route runs under the tenant named in the
	// X-Tenant-ID header.
	t := r.NewRoute().Subrouter()
	t.Use(s.tenantScope)
	t.HandleFunc("/org-units", s.handleCreateOrgUnit).Methods(http.MethodPost)
	t.HandleFunc("/org-units/{id}", s.handleGetOrgUnit).Methods(http.MethodGet)
	t.HandleFunc("/org-units/{id}", s.handleUpdateOrgUnit).Methods(http.MethodPatch)
	t.HandleFunc("/org-units/{id}", s.handleDeleteOrgUnit).Methods(http.MethodDelete)
	t.HandleFunc("/org-units/{id}/roles", s.handleOrgUnitRoles).Methods(http.MethodGet)
	t.HandleFunc("/org-units/{id}/roles/{roleID}", s.handleAssignOrgUnitRole).Methods(http.MethodPut)
	t.HandleFunc("/org-units/{id}/roles/{roleID}", s.handleRemoveOrgUnitRole).Methods(http.MethodDelete)
	t.HandleFunc("/roles", s.handleCreateRole).Methods(http.MethodPost)
	t.HandleFunc("/roles", s.handleListRoles).Methods(http.MethodGet)
	t.HandleFunc("/roles/{id}", s.handleGetRole).Methods(http.MethodGet)
	t.HandleFunc("/roles/{id}", s.handleUpdateRole).Methods(http.MethodPut)
	t.HandleFunc("/roles/{id}", s.handleDeleteRole).Methods(http.MethodDelete)
	t.HandleFunc("/roles/{id}/permissions", s.handleRolePermissions).Methods(http.MethodGet)
	t.HandleFunc("/permissions", s.handleListPermissions).Methods(http.MethodGet)
	return r
}

// requestContext seeds every request with the pool and a request-scoped logger
// so the composables resolve without wiring at each call site.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := composables.WithPool(r.Context(), s.pool)
		ctx = composables.WithLogger(ctx, s.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListenAndServe blocks until the context is cancelled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Infof("listening on %s", srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
