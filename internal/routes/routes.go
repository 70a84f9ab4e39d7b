package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finance-ledger-backend/internal/config"
	handler "finance-ledger-backend/internal/handlers"
	"finance-ledger-backend/internal/repository"
	"finance-ledger-backend/internal/services/fuzzy"
	service "finance-ledger-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.EngineConfig, logger *slog.Logger) {
	scheduleRepo := repository.NewScheduleRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	matchRepo := repository.NewMatchRepository(db)

	fuzzyMatcher := fuzzy.NewMatcher(cfg.MaxEditDistance, cfg.MinJaccard)

	ledgerService := service.NewService(
		scheduleRepo,
		transactionRepo,
		matchRepo,
		fuzzyMatcher,
		cfg,
		logger,
	)

	ledgerHandler := handler.NewLedgerHandler(ledgerService, logger)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// CSV import routes
	imports := api.Group("/import")
	imports.POST("/upload", ledgerHandler.Upload)
	imports.GET("/:batchId", ledgerHandler.GetBatchProgress)

	// Projection routes
	api.GET("/instances", ledgerHandler.ProjectInstances)
	api.GET("/schedules/:id/instances", ledgerHandler.ScheduleInstances)

	// Reconciliation routes
	recon := api.Group("/reconciliation")
	recon.POST("/run", ledgerHandler.RunReconciliation)
	recon.GET("/matches", ledgerHandler.ListMatches)

	// Match-level routes
	matches := api.Group("/matches")
	matches.POST("/:id/confirm", ledgerHandler.ConfirmMatch)
	matches.POST("/:id/reject", ledgerHandler.RejectMatch)
}
