package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"farmmarket/internal/access"
	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

// Deps wires the handler set. Database, Cache, Limiter and Audit are
// optional; nil means the backing component is not configured.
type Deps struct {
	Log         zerolog.Logger
	Environment string
	Tokens      access.Verifier
	Auth        *service.AuthService
	Approval    *service.ApprovalService
	Catalog     *service.CatalogService
	Uploads     *service.UploadService
	Audit       AuditLister
	Limiter     middleware.Limiter
	Database    Pinger
	Cache       Pinger
}

type HandlerSet struct {
	log         zerolog.Logger
	environment string
	tokens      access.Verifier
	auth        *service.AuthService
	approval    *service.ApprovalService
	catalog     *service.CatalogService
	uploads     *service.UploadService
	audit       AuditLister
	limiter     middleware.Limiter
	db          Pinger
	cache       Pinger
}

func NewHandlerSet(deps Deps) HandlerSet {
	return HandlerSet{
		log:         deps.Log,
		environment: deps.Environment,
		tokens:      deps.Tokens,
		auth:        deps.Auth,
		approval:    deps.Approval,
		catalog:     deps.Catalog,
		uploads:     deps.Uploads,
		audit:       deps.Audit,
		limiter:     deps.Limiter,
		db:          deps.Database,
		cache:       deps.Cache,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/", h.Root)

	api := engine.Group("/api")
	api.GET("/healthz", h.Health)

	auth := api.Group("/auth")
	auth.POST("/register", middleware.RateLimit(h.limiter, "register", h.log), h.RegisterUser)
	auth.POST("/login", middleware.RateLimit(h.limiter, "login", h.log), h.Login)

	api.GET("/products", h.ListProducts)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(h.tokens))

	farmer := authed.Group("")
	farmer.Use(middleware.Require(access.RequireApprovedFarmer))
	farmer.GET("/products/mine", h.ListMyProducts)
	farmer.POST("/products", h.CreateProduct)
	farmer.PUT("/products/:id", h.UpdateProduct)
	farmer.DELETE("/products/:id", h.DeleteProduct)
	farmer.POST("/uploads", h.UploadImage)

	admin := authed.Group("/admin")
	admin.Use(middleware.Require(access.RequireRole(models.UserRoleAdmin)))
	admin.GET("/farmers/pending", h.ListPendingFarmers)
	admin.PATCH("/farmers/:id/approve", h.ApproveFarmer)
	admin.GET("/events", h.ListEvents)
}
