package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handlers"
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/notify"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}

	db := client.Database(config.AppEnv.DBName)
	log.Info().Str("db", db.Name()).Msg("mongodb connected")

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Warn().Err(err).Msg("product index warning")
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Warn().Err(err).Msg("order index warning")
	}
	if err := database.EnsureShipmentIndexes(db); err != nil {
		log.Warn().Err(err).Msg("shipment index warning")
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Warn().Err(err).Msg("user index warning")
	}

	queue := notify.NewQueue(config.AppEnv.RedisAddr)
	sender := notify.NewWhatsAppSender(config.AppEnv.WhatsAppToken, config.AppEnv.WhatsAppPhoneID)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go notify.NewWorker(queue, sender).Run(workerCtx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AppEnv.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	secret := config.AppEnv.JWTSecret

	r.POST("/api/auth/login", handlers.Login(db, secret, config.AppEnv.AccessTokenTTL))

	api := r.Group("/api")
	api.Use(middleware.Protect(secret))
	{
		products := api.Group("/products")
		{
			products.GET("", middleware.Require(models.PermViewProducts), handlers.GetProducts(db))
			products.GET("/low-stock", middleware.Require(models.PermViewProducts), handlers.GetLowStockProducts(db))
			products.GET("/:id", middleware.Require(models.PermViewProducts), handlers.GetProduct(db))
			products.POST("", middleware.Require(models.PermManageProducts), handlers.CreateProduct(db))
			products.POST("/bulk", middleware.Require(models.PermManageProducts), handlers.BulkCreateProducts(db))
			products.POST("/:id/specs", middleware.Require(models.PermManageProducts), handlers.AddProductSpecs(db))
			products.PUT("/:id", middleware.Require(models.PermManageProducts), handlers.UpdateProduct(db))
			products.DELETE("/:id", middleware.Require(models.PermManageProducts), handlers.DeleteProduct(db))
		}

		orders := api.Group("/orders")
		{
			orders.POST("", middleware.Require(models.PermCreateOrders), handlers.CreateOrder(db, queue))
			orders.GET("", middleware.Require(models.PermManageOrders), handlers.GetOrders(db))
			orders.GET("/stream", middleware.Require(models.PermManageOrders), handlers.StreamNewOrders(db))
			orders.GET("/:id", middleware.Require(models.PermManageOrders), handlers.GetOrder(db))
			orders.PATCH("/:id/verify-inventory", middleware.Require(models.PermManageOrders), handlers.VerifyInventory(db))
			orders.PUT("/:id/status", middleware.Require(models.PermManageOrders), handlers.UpdateOrderStatus(db))
			orders.PATCH("/:id/approve", middleware.Require(models.PermApproveOrders), handlers.ApproveSale(db))
		}

		logistics := api.Group("/logistics")
		{
			logistics.POST("", middleware.Require(models.PermManageShipments), handlers.CreateShipment(db))
			logistics.GET("/order/:orderId", middleware.Require(models.PermManageShipments), handlers.GetShipment(db))
			logistics.PUT("/order/:orderId/status", middleware.Require(models.PermManageShipments), handlers.UpdateShipmentStatus(db))
		}

		returns := api.Group("/returns")
		{
			returns.GET("", middleware.Require(models.PermProcessReturns), handlers.GetReturns(db))
			returns.POST("/:id/return", middleware.Require(models.PermProcessReturns), handlers.ReturnOrder(db))
		}

		users := api.Group("/users")
		{
			users.POST("", middleware.Require(models.PermManageUsers), handlers.CreateUser(db))
			users.GET("", middleware.Require(models.PermManageUsers), handlers.GetUsers(db))
			users.GET("/:id", middleware.Require(models.PermManageUsers), handlers.GetUser(db))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
