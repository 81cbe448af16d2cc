package main

import (
	"context"
	"log"
	"os"

	_ "rendix/api/swagger" // swagger docs
	"rendix/internal/cache"
	"rendix/internal/database"
	"rendix/internal/handler"
	"rendix/internal/middleware"
	"rendix/internal/repository"
	"rendix/internal/service"
	"rendix/internal/storage"
	"rendix/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Rendix API
// @version         1.0
// @description     Multi-tenant financial backend for construction projects: organizations, projects and IVA-decomposed expenses.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "rendix")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Receipt files live on local disk, served back under /files/.
	receiptsDir := envOr("RECEIPTS_DIR", "./data/receipts")
	receiptStore := storage.NewDiskReceiptStore(receiptsDir, "/files")

	// Role cache is optional: with no REDIS_ADDR every lookup hits Postgres.
	roleCache := cache.NewMembershipCache(os.Getenv("REDIS_ADDR"))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authService := service.NewAuthService(userRepo)
	orgService := service.NewOrganizationService(orgRepo, memberRepo, userRepo, auditRepo, txManager, roleCache)
	projectService := service.NewProjectService(projectRepo, expenseRepo, auditRepo, txManager, wsHub)
	expenseService := service.NewExpenseService(expenseRepo, projectRepo, auditRepo, txManager, projectService, receiptStore, wsHub)
	dashboardService := service.NewDashboardService(db)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, orgService)
	orgHandler := handler.NewOrganizationHandler(orgService, orgService)
	projectHandler := handler.NewProjectHandler(projectService, orgService)
	expenseHandler := handler.NewExpenseHandler(expenseService, orgService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, orgService)
	auditHandler := handler.NewAuditHandler(auditService, orgService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Organization-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Stored receipts
	router.Static("/files", receiptsDir)

	// WebSocket endpoint
	isMember := func(ctx context.Context, orgID, userID uuid.UUID) bool {
		return orgService.ResolveRole(ctx, orgID, userID) != ""
	}
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(), isMember)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	orgHandler.RegisterRoutes(router.Group(""))
	projectHandler.RegisterRoutes(router.Group(""))
	expenseHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
