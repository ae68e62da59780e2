package main

import (
	"fmt"
	"os"

	"chatflow-service/internal/dto"
	"chatflow-service/internal/handler"
	"chatflow-service/internal/identity"
	"chatflow-service/internal/middleware"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/internal/tenant"
	"chatflow-service/pkg/config"
	"chatflow-service/pkg/database"
	"chatflow-service/pkg/jwtutil"
	"chatflow-service/pkg/logger"
	"chatflow-service/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("chatflow")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations for all entities
	if err := database.MigrateModels(
		&model.Enterprise{},
		&model.PricingPlan{},
		&model.Flow{},
		&model.Profile{},
		&model.Client{},
		&model.Message{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Identity provider client
	provider := identity.NewHTTPProvider(&conf.Identity, log)

	// Repositories
	enterprises := repository.NewEnterpriseRepository(db)
	plans := repository.NewPricingPlanRepository(db)
	flows := repository.NewFlowRepository(db)
	profiles := repository.NewProfileRepository(db)
	clients := repository.NewClientRepository(db)
	messages := repository.NewMessageRepository(db)

	resolver := tenant.NewResolver(profiles)

	// Initialize HTTP metrics
	httpMetrics := metrics.NewHTTPMetrics(conf.ServiceName)
	record := httpMetrics.RecordEntityOperation

	// Handlers
	enterpriseHandler := handler.NewEnterpriseHandler(enterprises, resolver, record)
	planHandler := handler.NewHandler(plans, resolver, func(p *model.PricingPlan) dto.PricingPlanDTO { return dto.NewPricingPlanDTO(p) }, record)
	flowHandler := handler.NewFlowHandler(flows, resolver, resolver, record)
	profileHandler := handler.NewProfileHandler(profiles, resolver, provider, record)
	clientHandler := handler.NewHandler(clients, resolver, func(cl *model.Client) dto.ClientDTO { return dto.NewClientDTO(cl) }, record)
	messageHandler := handler.NewMessageHandler(messages, resolver, record)
	authHandler := handler.NewAuthHandler(enterprises, profiles, provider, jwt)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	// Public routes
	e.GET("/health", handler.HealthCheck)
	authHandler.RegisterRoutes(e.Group("/auth"))

	// Secured routes - require authentication
	auth := middleware.JWTAuthMiddleware(jwt)

	enterpriseGroup := e.Group("/enterprises", auth)
	enterpriseHandler.Register(enterpriseGroup)

	planGroup := e.Group("/pricingPlans", auth)
	planHandler.Register(planGroup)

	flowGroup := e.Group("/flows", auth)
	flowHandler.Register(flowGroup)

	profileGroup := e.Group("/profiles", auth)
	profileHandler.Register(profileGroup)

	clientGroup := e.Group("/clients", auth)
	clientHandler.Register(clientGroup)

	messageGroup := e.Group("/messages", auth)
	messageHandler.Register(messageGroup)

	// Start server
	log.Info("Starting chatflow-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
