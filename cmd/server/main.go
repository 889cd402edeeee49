package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"reward-system/internal/fraud"
	"reward-system/internal/ledger"
	"reward-system/internal/model"
	"reward-system/internal/notify"
	"reward-system/internal/repository"
	"reward-system/internal/service"
	"reward-system/pkg/config"
	"reward-system/pkg/database"
	"reward-system/pkg/logger"

	ierr "reward-system/pkg/errors"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.L.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		logger.L.Fatalf("Failed to initialize logger: %v", err)
	}

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoDB, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoDB.Disconnect(context.Background()); err != nil {
			log.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	log.Infow("connected to MongoDB", "database", cfg.Mongo.Database)

	// Initialize repositories
	rewardRepo := repository.NewRewardRepository(mongoDB.Database)
	redemptionRepo := repository.NewRedemptionRepository(mongoDB.Database)
	auditRepo := repository.NewAuditRepository(mongoDB.Database)
	offerRepo := repository.NewOfferRepository(mongoDB.Database)
	txRunner := repository.NewTxRunner(mongoDB.Client)
	ledgerStore := ledger.NewMongoStore(mongoDB.Database)

	// Initialize services
	ledgerSvc := ledger.NewService(ledgerStore, log)
	guard := fraud.NewGuard(redemptionRepo, log).
		WithRateLimit(cfg.Fraud.RateLimitWindow, cfg.Fraud.RateLimitMax)
	notifier := notify.NewLogSender(log)

	var checker fraud.OnlineChecker
	if cfg.Fraud.RequireOnline {
		checker = fraud.NewConnectionChecker(cfg.Fraud.ProbeURL, cfg.Fraud.ProbeTTL, log)
	}

	rewardSvc := service.NewRewardService(rewardRepo, redemptionRepo, guard, ledgerSvc, notifier, log)
	validationSvc := service.NewValidationService(redemptionRepo, auditRepo, txRunner, checker, log)
	offerSvc := service.NewOfferService(offerRepo, ledgerSvc, notifier, log)

	// Setup Gin router
	router := setupRouter(rewardSvc, validationSvc, offerSvc, ledgerSvc)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infow("server starting", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down server")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Infow("server exited")
}

func setupRouter(
	rewardSvc *service.RewardService,
	validationSvc *service.ValidationService,
	offerSvc *service.OfferService,
	ledgerSvc *ledger.Service,
) *gin.Engine {
	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		api.POST("/accounts", createAccountHandler(ledgerSvc))
		api.GET("/accounts/:id/balance", balanceHandler(ledgerSvc))
		api.GET("/accounts/:id/redemptions", listRedemptionsHandler(rewardSvc))

		api.POST("/rewards", createRewardHandler(rewardSvc))
		api.GET("/rewards/:id", getRewardHandler(rewardSvc))
		api.POST("/rewards/redeem", redeemHandler(rewardSvc))
		api.GET("/businesses/:id/rewards", listBusinessRewardsHandler(rewardSvc))

		api.POST("/redemptions/validate", validateHandler(validationSvc))
		api.GET("/redemptions/:id", getRedemptionHandler(rewardSvc))
		api.GET("/redemptions/:id/audit", auditTrailHandler(validationSvc))
		api.POST("/redemptions/:id/cancel", cancelRedemptionHandler(rewardSvc))

		api.POST("/offers", createOfferHandler(offerSvc))
		api.POST("/offers/redeem", redeemOfferHandler(offerSvc))
	}

	return router
}

// respondError maps domain errors to HTTP responses, surfacing the
// user-facing hint message for each rejection case.
func respondError(c *gin.Context, err error) {
	c.JSON(ierr.HTTPStatusFromErr(err), gin.H{
		"error": gin.H{
			"code":    ierr.Code(err),
			"message": ierr.Hint(err),
		},
	})
}

func createAccountHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CreateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		account, err := svc.CreateAccount(c.Request.Context(), req.ID, req.Name, req.Level, req.InitialBalance)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, account)
	}
}

func balanceHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		balance, err := svc.Balance(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"account_id": c.Param("id"), "point_balance": balance})
	}
}

func createRewardHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CreateRewardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		reward, err := svc.CreateReward(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, reward)
	}
}

func getRewardHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reward, err := svc.GetReward(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, reward)
	}
}

func listBusinessRewardsHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rewards, err := svc.ListBusinessRewards(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"rewards": rewards})
	}
}

// redeemHandler handles POST /api/rewards/redeem
func redeemHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.IP = c.ClientIP()

		result, err := svc.Redeem(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// validateHandler handles POST /api/redemptions/validate
func validateHandler(svc *service.ValidationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.IP = c.ClientIP()

		result, err := svc.Validate(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func getRedemptionHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		redemption, err := svc.GetRedemption(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, redemption)
	}
}

func listRedemptionsHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		redemptions, err := svc.ListAccountRedemptions(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"redemptions": redemptions})
	}
}

func auditTrailHandler(svc *service.ValidationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.AuditTrail(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

func cancelRedemptionHandler(svc *service.RewardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RequesterID string `json:"requester_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := svc.CancelRedemption(c.Request.Context(), c.Param("id"), req.RequesterID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "redemption cancelled"})
	}
}

func createOfferHandler(svc *service.OfferService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.CreateOfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		offer, err := svc.CreateOffer(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, offer)
	}
}

// redeemOfferHandler handles POST /api/offers/redeem
func redeemOfferHandler(svc *service.OfferService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.RedeemOfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		result, err := svc.RedeemOffer(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
