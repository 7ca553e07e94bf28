package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/club-store/config"
	_ "github.com/d60-Lab/club-store/docs"
	"github.com/d60-Lab/club-store/internal/api/handler"
	"github.com/d60-Lab/club-store/internal/api/middleware"
)

// SetupRouter 注册全部路由
func SetupRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", h.Health)
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/products", h.ListProducts)
	v1.GET("/products/:id", h.GetProduct)

	auth := v1.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	buyer := auth.Group("/orders", middleware.RequireRole(middleware.RoleBuyer, middleware.RoleAdmin))
	{
		buyer.POST("", limiter.Middleware(), h.PlaceOrder)
		buyer.GET("/mine", h.ListMyOrders)
		buyer.GET("/:id", h.GetOrder)
		buyer.POST("/:id/cancel", h.CancelOrder)
		buyer.POST("/:id/pay", limiter.Middleware(), h.InitiatePayment)
		buyer.POST("/:id/transition", middleware.RequireRole(middleware.RoleAdmin), h.TransitionOrder)
	}

	auth.POST("/payments/webhook", middleware.RequireRole(middleware.RoleGateway), h.PaymentWebhook)

	admin := auth.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id/stock", h.SetStock)
		admin.PUT("/products/:id/status", h.SetProductStatus)
		admin.POST("/products/:id/recalculate", h.RecalculateStock)
		admin.GET("/clubs/:club_id/orders", h.ListClubOrders)
		admin.POST("/orders/:id/refund", h.RefundOrder)
		admin.POST("/expiry/sweep", h.SweepExpired)
		admin.GET("/expiry/audit", h.AuditStock)
	}
	return r
}
