package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"despensa/internal/config"
	custommiddleware "despensa/internal/middleware"
	"despensa/internal/repository"
	"despensa/internal/service"
	"despensa/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Rate limiting backed by redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	supermarketRepo := repository.NewSupermarketRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	genericItemRepo := repository.NewGenericItemRepository(db)
	brandProductRepo := repository.NewBrandProductRepository(db)
	observationRepo := repository.NewPriceObservationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	templateItemRepo := repository.NewTemplateItemRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	purchaseLineRepo := repository.NewPurchaseLineRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	masterDataService := service.NewMasterDataService(supermarketRepo, categoryRepo, unitRepo)
	productService := service.NewProductService(genericItemRepo, brandProductRepo, observationRepo, supermarketRepo, cfg.App.DefaultCurrency)
	templateService := service.NewTemplateService(templateRepo, templateItemRepo)
	purchaseService := service.NewPurchaseService(
		purchaseRepo, purchaseLineRepo, templateRepo, templateItemRepo,
		genericItemRepo, brandProductRepo, observationRepo,
		cfg.App.DefaultCurrency,
	)
	analyticsService := service.NewAnalyticsService(
		purchaseRepo, purchaseLineRepo, genericItemRepo, brandProductRepo,
		categoryRepo, observationRepo,
	)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	masterDataHandler := transport.NewMasterDataHandler(masterDataService, logger)
	catalogHandler := transport.NewCatalogHandler(productService, logger)
	templateHandler := transport.NewTemplateHandler(templateService, logger)
	purchaseHandler := transport.NewPurchaseHandler(purchaseService, logger)
	analyticsHandler := transport.NewAnalyticsHandler(analyticsService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	masterDataHandler.RegisterRoutes(router, authMiddleware)
	catalogHandler.RegisterRoutes(router, authMiddleware)
	templateHandler.RegisterRoutes(router, authMiddleware)
	purchaseHandler.RegisterRoutes(router, authMiddleware)
	analyticsHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	// Close redis connection
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
