package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	echoSwagger "github.com/swaggo/echo-swagger"

	"studiobook/internal/caching"
	"studiobook/internal/handlers"
	"studiobook/internal/jobs/background"
	"studiobook/internal/middleware"
	"studiobook/internal/repositories"
	"studiobook/internal/services"
	"studiobook/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Sweep trigger shared secret; without one the HTTP trigger stays
	// disabled and only the scheduler runs sweeps.
	sweepSecret := os.Getenv("SWEEP_SECRET")
	if sweepSecret == "" {
		log.Printf("WARNING: SWEEP_SECRET not set, manual sweep trigger disabled")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Create repositories
	planRepo := repositories.NewPlanRepo(pool)
	couponRepo := repositories.NewCouponRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	auditSvc := services.NewAuditLogsService(auditLogRepo)
	couponSvc := services.NewCouponService(couponRepo, services.NewCodeGenerator(), auditSvc)
	planSvc := services.NewPlanService(planRepo, couponSvc, cacheSvc, auditSvc)

	// Background scheduler
	scheduler := background.NewJobScheduler(planSvc, cacheSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Create handlers
	planHandlers := handlers.NewPlanHandlers(planSvc)
	couponHandlers := handlers.NewCouponHandlers(couponSvc)
	jobHandlers := handlers.NewJobHandlers(planSvc, scheduler, sweepSecret)
	auditHandlers := handlers.NewAuditHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, version)

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)

	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API routes
	v1 := e.Group("/v1")

	// Sweep trigger authenticates itself with the shared-secret header, not
	// a user token.
	v1.POST("/jobs/sweep-expired", jobHandlers.TriggerSweep)

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))

	// Plan routes
	protected.GET("/plans/tiers", planHandlers.ListTiers)
	protected.GET("/plans", planHandlers.ListPlans)
	protected.POST("/plans", planHandlers.ActivatePlan)
	protected.GET("/plans/:id", planHandlers.GetPlan)
	protected.PUT("/plans/:id/read", planHandlers.MarkPlanRead)
	protected.GET("/plans/:id/coupons", couponHandlers.ListPlanCoupons)

	// Coupon routes
	protected.POST("/coupons", couponHandlers.IssueCoupon)
	protected.GET("/coupons/:code", couponHandlers.GetCoupon)
	protected.POST("/coupons/:code/redeem", couponHandlers.RedeemCoupon)
	protected.POST("/coupons/:code/release", couponHandlers.ReleaseCoupon)
	protected.DELETE("/coupons/:id", couponHandlers.DeleteCoupon)

	// Job status
	protected.GET("/jobs/status", jobHandlers.JobStatus)

	// Admin audit trail
	protected.GET("/audit-logs/:entity/:id", auditHandlers.ListRecordAuditLogs)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Studiobook server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
