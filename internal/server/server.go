package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bookmehq/bookme/internal/config"
	"github.com/bookmehq/bookme/internal/guard"
	"github.com/bookmehq/bookme/internal/hostcheck"
	"github.com/bookmehq/bookme/internal/identity"
	"github.com/bookmehq/bookme/internal/observability"
	"github.com/bookmehq/bookme/internal/ratelimit"
	rbacdomain "github.com/bookmehq/bookme/internal/rbac/domain"
	tenantdomain "github.com/bookmehq/bookme/internal/tenant/domain"
	"github.com/bookmehq/bookme/internal/tenantbind"
	userdomain "github.com/bookmehq/bookme/internal/user/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(
		NewEngine,
		NewServer,
	),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	tenants       tenantdomain.Service
	roles         rbacdomain.Service
	users         userdomain.Service
	guard         *guard.Guard
	binder        *tenantbind.Binder
	hosts         *hostcheck.Checker
	identity      identity.Resolver
	signupLimiter *ratelimit.SignupLimiter
	log           *zap.Logger
}

type Params struct {
	fx.In

	Engine        *gin.Engine
	Cfg           config.Config
	Tenants       tenantdomain.Service
	Roles         rbacdomain.Service
	Users         userdomain.Service
	Guard         *guard.Guard
	Binder        *tenantbind.Binder
	Hosts         *hostcheck.Checker
	Identity      identity.Resolver
	SignupLimiter *ratelimit.SignupLimiter
	Log           *zap.Logger
}

func NewServer(p Params) *Server {
	return &Server{
		engine:        p.Engine,
		cfg:           p.Cfg,
		tenants:       p.Tenants,
		roles:         p.Roles,
		users:         p.Users,
		guard:         p.Guard,
		binder:        p.Binder,
		hosts:         p.Hosts,
		identity:      p.Identity,
		signupLimiter: p.SignupLimiter,
		log:           p.Log.Named("server"),
	}
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	// Health and metrics answer on any host, before host validation.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerRoutes(s *Server) {
	api := s.engine.Group("/api")
	api.Use(s.HostValidation())
	api.Use(s.TenantBinding())

	// Public self-service registration.
	api.POST("/tenants", s.SignupRateLimit(), s.registerTenant)

	// Platform administration. Tenant binding still runs so staff can
	// operate from tenant hostnames, but authorization is platform-level.
	admin := api.Group("/admin")
	admin.Use(s.AuthRequired(), s.RequirePlatformStaff())
	{
		admin.GET("/tenants", s.listTenants)
		admin.GET("/tenants/:id", s.getTenant)
		admin.PATCH("/tenants/:id/status", s.updateTenantStatus)
		admin.PATCH("/tenants/:id/tier", s.updateTenantTier)
		admin.PUT("/tenants/:id/modules", s.updateTenantModules)
		admin.DELETE("/tenants/:id", s.deleteTenant)
		admin.GET("/tenants/:id/events", s.listTenantEvents)
		admin.POST("/tenants/:id/roles/resync", s.resyncTenantRoles)
		admin.POST("/users", s.createUser)
		admin.PATCH("/users/:id/flags", s.setPrivilegeFlags)
	}

	// Tenant-scoped operations, gated per-permission.
	authed := api.Group("")
	authed.Use(s.AuthRequired())
	{
		authed.GET("/me/permissions", s.RequirePermission(""), s.myPermissions)

		authed.GET("/roles", s.RequirePermission("role.view"), s.listRoles)
		authed.GET("/roles/:id", s.RequirePermission("role.view"), s.getRole)
		authed.POST("/roles", s.RequirePermission("role.create"), s.createRole)
		authed.PATCH("/roles/:id", s.RequirePermission("role.update"), s.updateRole)
		authed.POST("/roles/:id/deactivate", s.RequirePermission("role.update"), s.deactivateRole)
		authed.DELETE("/roles/:id", s.RequirePermission("role.delete"), s.deleteRole)

		authed.GET("/members", s.RequirePermission("membership.view"), s.listMembers)
		authed.POST("/members", s.RequirePermission("membership.create"), s.addMember)
		authed.PATCH("/members/:id", s.RequirePermission("membership.update"), s.updateMember)
		authed.DELETE("/members/:id", s.RequirePermission("membership.delete"), s.removeMember)
	}
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
