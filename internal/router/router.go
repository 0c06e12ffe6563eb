package router

import (
	"time"

	"bottega/config"
	"bottega/internal/handler"
	"bottega/internal/middleware"
	"bottega/internal/repository"
	"bottega/internal/service"
	"bottega/internal/ws"
	"bottega/pkg/chatbot"
	"bottega/pkg/courier"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers and returns the engine
// together with the dispatch service so main can run the background worker.
func Setup(cfg *config.Config, db *gorm.DB, provider courier.Provider, bot chatbot.Sender) (*gin.Engine, *service.DispatchService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewSlidingWindowLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	giftCardRepo := repository.NewGiftCardRepository(db)
	promoRepo := repository.NewPromotionRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	cartRepo := repository.NewCartRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	opsHub := ws.NewOpsHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, referralRepo)
	notifSvc := service.NewNotificationService(notificationRepo, opsHub, bot)
	ledgerSvc := service.NewLedgerService(creditRepo, giftCardRepo)
	referralSvc := service.NewReferralService(referralRepo, orderRepo, ledgerSvc, settingRepo)
	settlementSvc := service.NewSettlementService(
		cfg.Checkout.Provider,
		orderRepo, giftCardRepo, cartRepo, promoRepo,
		ledgerSvc, referralSvc, notifSvc, auditRepo, settingRepo,
	)
	dispatchSvc := service.NewDispatchService(orderRepo, provider, notifSvc, auditRepo, settingRepo, cfg.Courier)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	orderHandler := handler.NewOrderHandler(orderRepo)
	cartHandler := handler.NewCartHandler(cartRepo)
	giftCardHandler := handler.NewGiftCardHandler(giftCardRepo)
	creditHandler := handler.NewCreditHandler(creditRepo)
	referralHandler := handler.NewReferralHandler(referralRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	adminHandler := handler.NewAdminHandler(orderRepo, dispatchSvc)
	webhookHandler := handler.NewCheckoutWebhookHandler(settlementSvc, cfg)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.GET("/gift-cards/:token", giftCardHandler.Lookup)
		api.POST("/webhooks/checkout", webhookHandler.Handle)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/orders", orderHandler.ListMine)
			me.GET("/orders/:id", orderHandler.GetReceipt)
			me.GET("/cart", cartHandler.List)
			me.POST("/cart", cartHandler.Add)
			me.DELETE("/cart/:id", cartHandler.Remove)
			me.DELETE("/cart", cartHandler.Clear)
			me.GET("/credit", creditHandler.GetBalance)
			me.GET("/credit/transactions", creditHandler.ListTransactions)
			me.GET("/referral", referralHandler.GetMyCode)
			me.GET("/referral/list", referralHandler.ListMine)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/orders", adminHandler.ListOrders)
			admin.POST("/orders/:id/dispatch", adminHandler.DispatchOrder)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
		}
	}

	r.GET("/ws/ops", ws.UpgradeOpsWS(&cfg.JWT, opsHub))

	return r, dispatchSvc
}
