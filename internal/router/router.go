package router

import (
	"comedybar/internal/config"
	"comedybar/internal/handler"
	"comedybar/internal/infra"
	"comedybar/internal/middleware"
	"comedybar/internal/model"
	"comedybar/internal/repository"
	"comedybar/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP API and the workers.
type Services struct {
	Auth      service.AuthService
	Events    service.EventService
	Sessions  service.SessionService
	Tabs      service.TabService
	Inventory service.InventoryService
	Rollup    service.RollupService
}

// NewServices wires repositories into services.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, db *gorm.DB, notifier service.BarNotifier, reports service.ReportEnqueuer) *Services {
	usuarioRepo := repository.NewUsuarioRepository(db)
	eventRepo := repository.NewEventRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tabRepo := repository.NewTabRepository(db)
	stockRepo := repository.NewStockItemRepository(db)
	stockTxRepo := repository.NewStockTransactionRepository(db)

	inventory := service.NewInventoryService(stockRepo, stockTxRepo)
	rollup := service.NewRollupService(sessionRepo, tabRepo)

	return &Services{
		Auth:      service.NewAuthService(usuarioRepo, cfg),
		Events:    service.NewEventService(eventRepo),
		Inventory: inventory,
		Rollup:    rollup,
		Sessions: service.NewSessionService(service.SessionServiceDeps{
			Sessions:       sessionRepo,
			Tabs:           tabRepo,
			Events:         eventRepo,
			Reports:        reports,
			Notifier:       notifier,
			TabsPerSession: cfg.TabsPerSession,
		}),
		Tabs: service.NewTabService(service.TabServiceDeps{
			Tabs:      tabRepo,
			Sessions:  sessionRepo,
			Stock:     stockRepo,
			Inventory: inventory,
			Rollup:    rollup,
			Notifier:  notifier,
		}),
	}
}

// New returns the configured Gin engine.
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	smtpCB *infra.CircuitBreaker,
	svcs *Services,
	sub handler.BarSubscriber,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Prometheus())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.APIRateLimiter(cfg.RateLimitPerMinute))

	idem := repository.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)

	authH := handler.NewAuthHandler(svcs.Auth)
	usersH := handler.NewUsersHandler(svcs.Auth)
	eventsH := handler.NewEventsHandler(svcs.Events)
	sessionsH := handler.NewSessionsHandler(svcs.Sessions, svcs.Rollup)
	tabsH := handler.NewTabsHandler(svcs.Tabs, idem)
	stockH := handler.NewStockHandler(svcs.Inventory)
	streamH := handler.NewStreamHandler(sub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	staff := []string{model.RoleBartender, model.RoleManager, model.RoleAdmin}
	managers := []string{model.RoleManager, model.RoleAdmin}

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		sessions := v1.Group("/sessions", middleware.RequireRole(staff...))
		{
			sessions.GET("/active", sessionsH.Active)
			sessions.GET("/unclosed", sessionsH.Unclosed)
			sessions.POST("", sessionsH.Open)
			sessions.POST("/:id/close", sessionsH.Close)
			sessions.GET("/:id/tabs", sessionsH.Tabs)
			sessions.GET("/:id/stream", streamH.Session)
		}
		mgmt := v1.Group("/sessions", middleware.RequireRole(managers...))
		{
			mgmt.GET("", sessionsH.History)
			mgmt.GET("/:id/summary", sessionsH.Summary)
			mgmt.POST("/:id/recalculate", sessionsH.Recalculate)
		}

		tabs := v1.Group("/tabs", middleware.RequireRole(staff...))
		{
			tabs.GET("/:id", tabsH.Detail)
			tabs.POST("/:id/open", tabsH.Open)
			tabs.PUT("/:id/customer-name", tabsH.UpdateCustomerName)
			tabs.POST("/:id/items", tabsH.AddItem)
			tabs.PUT("/:id/discount", tabsH.ApplyDiscount)
			tabs.POST("/:id/close", tabsH.Close)
		}
		items := v1.Group("/tab-items", middleware.RequireRole(staff...))
		{
			items.PATCH("/:id", tabsH.UpdateItemQuantity)
			items.DELETE("/:id", tabsH.RemoveItem)
		}

		v1.GET("/events", middleware.RequireRole(staff...), eventsH.List)
		v1.GET("/events/:id", middleware.RequireRole(staff...), eventsH.Get)
		v1.POST("/events", middleware.RequireRole(model.RoleAdmin), eventsH.Create)

		stock := v1.Group("/stock")
		{
			stock.GET("/items", middleware.RequireRole(staff...), stockH.ListItems)
			stock.GET("/items/:id", middleware.RequireRole(staff...), stockH.GetItem)
			stock.GET("/alerts", middleware.RequireRole(staff...), stockH.Alerts)
			stock.GET("/movements", middleware.RequireRole(managers...), stockH.ListMovements)
			stock.POST("/movements", middleware.RequireRole(managers...), stockH.RegisterMovement)
		}

		users := v1.Group("/users", middleware.RequireRole(model.RoleAdmin))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
