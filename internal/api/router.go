// Package api assembles the HTTP surface: route registration, middleware
// ordering, and the wiring between handlers and services.
package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/access"
	iauth "github.com/masterdash/masterdash/internal/auth"
	"github.com/masterdash/masterdash/internal/dashboards"
	"github.com/masterdash/masterdash/internal/handlers"
	"github.com/masterdash/masterdash/internal/middleware"
	"github.com/masterdash/masterdash/internal/services"
	"github.com/masterdash/masterdash/internal/warehouse"
)

// Options bundles the collaborators the router needs.
type Options struct {
	DB        *gorm.DB
	Warehouse *warehouse.Store
	Gateway   *access.Gateway
	Registry  *dashboards.Registry
	JWT       *iauth.JWTService

	// EnableDiagnostics exposes the warehouse inspection routes. Off in
	// production.
	EnableDiagnostics bool
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, errors.New("api: db is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("api: gateway is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("api: registry is required")
	}
	if opts.JWT == nil {
		return nil, errors.New("api: jwt service is required")
	}

	auditService, err := services.NewAuditService(opts.DB)
	if err != nil {
		return nil, err
	}
	userService, err := services.NewUserService(opts.DB, auditService)
	if err != nil {
		return nil, err
	}
	sectorService, err := services.NewSectorService(opts.DB, auditService)
	if err != nil {
		return nil, err
	}
	areaService, err := services.NewAreaService(opts.DB, auditService)
	if err != nil {
		return nil, err
	}
	dashboardService, err := services.NewDashboardService(opts.DB, auditService)
	if err != nil {
		return nil, err
	}
	accessService, err := services.NewAccessService(opts.DB, auditService)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(userService, auditService, opts.JWT)
	if err != nil {
		return nil, err
	}
	userHandler, err := handlers.NewUserHandler(userService)
	if err != nil {
		return nil, err
	}
	sectorHandler, err := handlers.NewSectorHandler(sectorService)
	if err != nil {
		return nil, err
	}
	areaHandler, err := handlers.NewAreaHandler(areaService)
	if err != nil {
		return nil, err
	}
	dashboardHandler, err := handlers.NewDashboardHandler(dashboardService, userService)
	if err != nil {
		return nil, err
	}
	permissionHandler, err := handlers.NewPermissionHandler(accessService)
	if err != nil {
		return nil, err
	}
	dataHandler, err := handlers.NewDashboardDataHandler(opts.Gateway, opts.Registry, dashboardService, auditService)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(auditService)
	if err != nil {
		return nil, err
	}
	healthHandler := handlers.NewHealthHandler(opts.DB, opts.Warehouse)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(),
	)
	router.NoRoute(middleware.NotFoundHandler)

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(opts.JWT))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/dashboards", dashboardHandler.ListMine)
		authed.GET("/dashboards/:slug/data", dataHandler.Data)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.Auth(opts.JWT), middleware.RequireAdmin())
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.GET("/users/:id", userHandler.Get)
		admin.PATCH("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)

		admin.GET("/sectors", sectorHandler.List)
		admin.POST("/sectors", sectorHandler.Create)
		admin.GET("/sectors/:id", sectorHandler.Get)
		admin.PATCH("/sectors/:id", sectorHandler.Update)
		admin.DELETE("/sectors/:id", sectorHandler.Delete)

		admin.GET("/areas", areaHandler.List)
		admin.POST("/areas", areaHandler.Create)
		admin.GET("/areas/:id", areaHandler.Get)
		admin.PATCH("/areas/:id", areaHandler.Update)
		admin.DELETE("/areas/:id", areaHandler.Delete)

		admin.GET("/dashboards", dashboardHandler.List)
		admin.POST("/dashboards", dashboardHandler.Create)
		admin.GET("/dashboards/:id", dashboardHandler.Get)
		admin.PATCH("/dashboards/:id", dashboardHandler.Update)
		admin.DELETE("/dashboards/:id", dashboardHandler.Delete)

		admin.GET("/permissions", permissionHandler.List)
		admin.POST("/permissions", permissionHandler.Grant)
		admin.GET("/permissions/:id", permissionHandler.Get)
		admin.PATCH("/permissions/:id", permissionHandler.UpdateScope)
		admin.DELETE("/permissions/:id", permissionHandler.Revoke)

		admin.GET("/audit-logs", auditHandler.List)
	}

	if opts.EnableDiagnostics && opts.Warehouse != nil {
		warehouseHandler, err := handlers.NewWarehouseHandler(opts.Warehouse)
		if err != nil {
			return nil, err
		}
		diag := api.Group("/warehouse")
		diag.Use(middleware.Auth(opts.JWT), middleware.RequireAdmin())
		diag.GET("/ping", warehouseHandler.Ping)
		diag.GET("/schema", warehouseHandler.Schema)
	}

	return router, nil
}
