package router

import (
	"log"
	"time"

	"huduma/config"
	"huduma/internal/domain"
	"huduma/internal/handler"
	"huduma/internal/middleware"
	"huduma/internal/repository"
	"huduma/internal/service"
	"huduma/pkg/booking"
	"huduma/pkg/payment"
	"huduma/pkg/payout"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	walletRepo := repository.NewWalletRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	intentRepo := repository.NewIntentRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	profileRepo := repository.NewPayoutProfileRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	otpRepo := repository.NewOTPRepository(rdb)

	// External collaborators, selected once at startup.
	provider := fundingProvider(cfg)
	rails := payoutRegistry(cfg)
	settlement := booking.NewClient(cfg.Booking.BaseURL, cfg.Booking.ServiceToken)

	// Services
	walletSvc := service.NewWalletService(walletRepo, ledgerRepo)
	intentSvc := service.NewIntentService(intentRepo)
	transferSvc := service.NewTransferService(walletSvc, auditRepo)
	reconciler := service.NewReconciler(intentSvc, walletSvc, settlement, profileRepo, auditRepo)
	withdrawalSvc := service.NewWithdrawalService(walletSvc, withdrawalRepo, otpRepo, profileRepo, rails, service.LogNotifier{}, auditRepo, cfg.Withdrawal.OTPTTL)

	// Handlers
	walletHandler := handler.NewWalletHandler(walletSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	fundingHandler := handler.NewFundingHandler(intentSvc, provider, cfg)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(reconciler, cfg)
	payoutWebhookHandler := handler.NewPayoutWebhookHandler(withdrawalSvc, reconciler)

	api := r.Group("/api/v1")

	me := api.Group("/me", middleware.AuthRequired(&cfg.JWT))
	{
		me.GET("/wallet", walletHandler.GetBalance)
		me.GET("/wallet/transactions", walletHandler.GetTransactions)
		me.GET("/wallet/summary", walletHandler.GetSummary)
		me.POST("/wallet/transfer", transferHandler.Transfer)
		me.GET("/withdrawals", withdrawalHandler.List)
		me.POST("/withdrawals", withdrawalHandler.Request)
		// Tight per-account limit so codes cannot be brute forced.
		me.POST("/withdrawals/confirm",
			middleware.RateLimitByAccount(middleware.NewInMemoryRateLimiter(5, time.Minute)),
			withdrawalHandler.Confirm)
	}

	payments := api.Group("/payments", middleware.AuthRequired(&cfg.JWT))
	{
		payments.POST("/initiate", fundingHandler.Initiate)
		payments.GET("/:reference", fundingHandler.GetIntent)
	}

	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/payments", paymentWebhookHandler.Handle)
		webhooks.POST("/payouts", payoutWebhookHandler.HandleResult)
		webhooks.POST("/payouts/account", payoutWebhookHandler.HandleAccountUpdate)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func fundingProvider(cfg *config.Config) payment.Provider {
	switch cfg.Payment.Provider {
	case "liberec":
		log.Printf("[Router] funding provider: TheLiberec M-Pesa")
		return payment.NewLiberecMpesaProvider(cfg.LiberecMpesa.BaseURL, cfg.LiberecMpesa.Email, cfg.LiberecMpesa.Password, cfg.LiberecMpesa.WebhookBaseURL)
	default:
		log.Printf("[Router] funding provider: stub (set PAYMENT_PROVIDER=liberec for live payments)")
		return &payment.StubProvider{}
	}
}

func payoutRegistry(cfg *config.Config) *payout.Registry {
	rails := payout.NewRegistry()
	if cfg.Payment.Provider == "liberec" {
		rails.Register(domain.PayoutChannelMpesa, payout.NewLiberecB2CRail(cfg.LiberecMpesa.BaseURL, cfg.LiberecMpesa.Email, cfg.LiberecMpesa.Password, cfg.LiberecMpesa.WebhookBaseURL))
	} else {
		rails.Register(domain.PayoutChannelMpesa, &payout.StubRail{})
	}
	if cfg.BankRail.BaseURL != "" {
		rails.Register(domain.PayoutChannelBank, payout.NewBankRail(cfg.BankRail.BaseURL, cfg.BankRail.APIKey))
	} else {
		rails.Register(domain.PayoutChannelBank, &payout.StubRail{})
	}
	return rails
}
