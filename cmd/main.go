package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/labstack/echo/v4"

	"appaudit/internal/caching"
	"appaudit/internal/config"
	"appaudit/internal/handlers"
	"appaudit/internal/jobs/background"
	"appaudit/internal/middleware"
	"appaudit/internal/msgraph"
	"appaudit/internal/repositories"
	"appaudit/internal/services"
	"appaudit/pkg/database"
)

const version = "1.0.0"

func main() {
	// Configuration: optional TOML file plus environment overrides for
	// everything credential-shaped.
	cfg := config.Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32)
		log.Printf("WARNING: JWT_SECRET not set, using a generated secret; sessions will not survive restarts")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			redisDB = db
		}
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true" || cfg.Secrets.UseSSL

	// Secret store holding tenant client secrets.
	secretResolver, err := msgraph.NewMinioSecretResolver(minioEndpoint, minioAccessKey, minioSecretKey, cfg.Secrets.Bucket, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize secret resolver: %v", err)
	}

	// Provider plumbing: token manager, graph client, scanner.
	var tokenOpts []msgraph.TokenManagerOption
	if cfg.Provider.TokenURL != "" {
		tokenOpts = append(tokenOpts, msgraph.WithTokenURL(cfg.Provider.TokenURL))
	}
	if cfg.Provider.Scope != "" {
		tokenOpts = append(tokenOpts, msgraph.WithScope(cfg.Provider.Scope))
	}
	tokenManager := msgraph.NewTokenManager(secretResolver, tokenOpts...)

	var clientOpts []msgraph.ClientOption
	if cfg.Provider.GraphBaseURL != "" {
		clientOpts = append(clientOpts, msgraph.WithBaseURL(cfg.Provider.GraphBaseURL))
	}
	graphClient := msgraph.NewClient(clientOpts...)
	scanner := msgraph.NewScanner(tokenManager, graphClient)

	// Repositories
	orgRepo := repositories.NewOrganizationRepo(pool)
	memberRepo := repositories.NewMemberRepo(pool)
	propertyRepo := repositories.NewPropertyRepo(pool)
	connectionRepo := repositories.NewConnectionRepo(pool)
	appRepo := repositories.NewAppRepo(pool)
	scanRepo := repositories.NewScanRepo(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Services
	orgSvc := services.NewOrganizationService(orgRepo, memberRepo)
	propertySvc := services.NewPropertyService(propertyRepo, connectionRepo, orgSvc)
	connectionSvc := services.NewConnectionService(connectionRepo, propertyRepo, orgSvc, tokenManager)
	scanSvc := services.NewScanService(connectionRepo, propertyRepo, appRepo, scanRepo, orgSvc, scanner, cacheSvc, cfg.ScanRetention())

	// Handlers
	orgHandlers := handlers.NewOrgHandlers(orgSvc)
	propertyHandlers := handlers.NewPropertyHandlers(propertySvc)
	connectionHandlers := handlers.NewConnectionHandlers(connectionSvc)
	scanHandlers := handlers.NewScanHandlers(scanSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, nil)

	// Background scheduler: periodic scans and retention cleanup.
	scheduler := background.NewJobScheduler(scanSvc, connectionRepo, scanRepo, cfg.ScanInterval(), cfg.Scan.Concurrency)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/metrics", healthHandlers.GetMetrics)

	v1 := e.Group("/v1")

	protected := v1.Group("")
	if jwksURL := os.Getenv("JWKS_URL"); jwksURL != "" {
		jwks, err := middleware.JWKSMiddleware(jwksURL)
		if err != nil {
			log.Fatalf("Failed to initialize JWKS middleware: %v", err)
		}
		protected.Use(jwks)
	} else {
		protected.Use(middleware.JWTMiddleware(jwtSecret))
	}
	protected.Use(middleware.ExtractUser())
	protected.Use(middleware.RateLimit(cacheSvc, cfg.Server.RateLimit, cfg.RateWindow()))

	// Organization routes
	protected.POST("/orgs", orgHandlers.CreateOrg)
	protected.GET("/orgs", orgHandlers.ListOrgs)
	protected.GET("/orgs/:id", orgHandlers.GetOrg)
	protected.PUT("/orgs/:id", orgHandlers.UpdateOrg)
	protected.DELETE("/orgs/:id", orgHandlers.DeleteOrg)

	// Membership routes
	protected.GET("/orgs/:id/members", orgHandlers.ListMembers)
	protected.POST("/orgs/:id/members", orgHandlers.AddMember)
	protected.PUT("/orgs/:id/members/:userId", orgHandlers.UpdateMemberRole)
	protected.DELETE("/orgs/:id/members/:userId", orgHandlers.RemoveMember)

	// Property routes
	protected.GET("/properties", propertyHandlers.ListProperties)
	protected.POST("/properties", propertyHandlers.CreateProperty)
	protected.GET("/properties/:id", propertyHandlers.GetProperty)
	protected.PUT("/properties/:id", propertyHandlers.UpdateProperty)
	protected.DELETE("/properties/:id", propertyHandlers.DeleteProperty)

	// Connection routes
	protected.GET("/connections", connectionHandlers.ListConnections)
	protected.POST("/connections", connectionHandlers.CreateConnection)
	protected.GET("/connections/:id", connectionHandlers.GetConnection)
	protected.POST("/connections/:id/revoke", connectionHandlers.RevokeConnection)
	protected.DELETE("/connections/:id", connectionHandlers.DeleteConnection)

	// Scan and app routes
	protected.POST("/connections/:id/scans", scanHandlers.TriggerScan)
	protected.GET("/connections/:id/scans", scanHandlers.ListScans)
	protected.GET("/connections/:id/apps", scanHandlers.ListApps)
	protected.GET("/connections/:id/summary", scanHandlers.GetSummary)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	log.Printf("appaudit server v%s starting on port %s", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%s", port)))
}
