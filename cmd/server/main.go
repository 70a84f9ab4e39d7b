package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"finance-ledger-backend/internal/config"
	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/observability"
	"finance-ledger-backend/internal/routes"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	logger := observability.NewLogger()

	db := config.InitDB()

	db.AutoMigrate(
		&models.Account{},
		&models.Transaction{},
		&models.RecurringTransaction{},
		&models.RecurringTransfer{},
		&models.RecurringException{},
		&models.ReconciliationMatch{},
		&models.ImportBatch{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, config.LoadEngineConfig(), logger)

	r.Run(":8080")
}
