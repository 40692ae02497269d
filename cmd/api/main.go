package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	_ "applicant-review-api/api/swagger" // swagger docs
	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/database"
	"applicant-review-api/internal/handler"
	"applicant-review-api/internal/middleware"
	"applicant-review-api/internal/repository"
	"applicant-review-api/internal/service"
	"applicant-review-api/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Applicant Review API
// @version         1.0
// @description     Submission review workflow: admission, status transitions, archival & revision, published profiles.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	initLogging()

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Cache: redis when configured, in-process memory otherwise.
	var appCache cache.Cache = cache.NewMemory()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		redisCache, err := cache.NewRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), redisDB, "review")
		if err != nil {
			log.Printf("Redis unavailable (%v), falling back to in-memory cache", err)
		} else {
			appCache = redisCache
			log.Println("Connected to Redis successfully.")
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	accountRepo := repository.NewAccountRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	recordRepo := repository.NewStatusRecordRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	notifier := service.NewNotifier(service.MailConfigFromEnv(), wsHub)
	profileService := service.NewProfileService(profileRepo, accountRepo)
	accountService := service.NewAccountService(txManager, accountRepo, recordRepo, submissionRepo, profileRepo, auditRepo)
	submissionService := service.NewSubmissionService(txManager, submissionRepo, recordRepo, accountRepo, auditRepo, profileService, notifier, appCache)
	reviewService := service.NewReviewService(txManager, submissionRepo, recordRepo, accountRepo, auditRepo, profileService, notifier, appCache)
	statusQueryService := service.NewStatusQueryService(recordRepo, appCache)
	exportService := service.NewExportService(recordRepo)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo, appCache)

	// Initialize Handlers
	accountHandler := handler.NewAccountHandler(accountService)
	submissionHandler := handler.NewSubmissionHandler(submissionService, reviewService, statusQueryService, exportService)
	profileHandler := handler.NewProfileHandler(profileService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for the reviewer queue
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("/api/v1")
	accountHandler.RegisterRoutes(api)
	submissionHandler.RegisterRoutes(api)
	profileHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// initLogging mirrors stdout into logs/review-api.log so notification
// and reconciliation warnings survive restarts.
func initLogging() {
	logPath := filepath.Join("logs", "review-api.log")
	if err := os.MkdirAll(filepath.Dir(logPath), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
		return
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
}
