package container

import (
	"context"
	"time"

	"luckydraw-api/internal/config"
	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/repository"
	"luckydraw-api/internal/service"
	"luckydraw-api/internal/service/auth"
	"luckydraw-api/pkg/database"
	"luckydraw-api/pkg/logger"
	"luckydraw-api/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	Database    *database.PostgresDB
	RedisClient *redis.Client
	Services    *service.Services

	Cache   *service.CacheService
	Ledger  *service.LedgerService
	Quiz    *service.QuizService
	Reward  *service.RewardService
	Catalog *service.CatalogService
	Session *service.SessionService
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	// Initialize repositories. Without a database the ledger runs on the
	// in-memory store, which is enough for local development.
	var (
		db       *database.PostgresDB
		profiles repository.ProfileRepository
		draws    repository.DrawRepository
	)
	if cfg.DatabaseURL != "" {
		pg, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db = pg
		profiles = repository.NewProfileRepository(pg)
		draws = repository.NewDrawRepository(pg)
		logger.Info("PostgreSQL connection pool initialized successfully")
	} else {
		logger.Warn("Database URL not configured, using in-memory repositories")
		profiles = repository.NewMemoryProfileRepository()
		draws = repository.NewMemoryDrawRepository(nil)
	}

	// Initialize services
	authService := auth.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL, cfg.JWTSecret, logger)
	cacheService := service.NewCacheService(redisClient, logger.Logger)
	ledgerService := service.NewLedgerService(profiles, cacheService, logger.Logger)
	quizService := service.NewQuizService(ledgerService, domain.DefaultQuizQuestions(), cfg.QuizRewardTokens, logger.Logger)
	rewardService := service.NewRewardService(ledgerService, redisClient, cfg.AdRewardTokens, time.Duration(cfg.AdCooldownSeconds)*time.Second, logger.Logger)
	catalogService := service.NewCatalogService(draws, redisClient, cacheService, logger.Logger)
	sessionService := service.NewSessionService(ledgerService, quizService, rewardService, cacheService, cfg.SignupBonus, logger.Logger)

	services := &service.Services{
		Auth: authService,
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Database:    db,
		RedisClient: redisClient,
		Services:    services,
		Cache:       cacheService,
		Ledger:      ledgerService,
		Quiz:        quizService,
		Reward:      rewardService,
		Catalog:     catalogService,
		Session:     sessionService,
	}, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Close releases all held resources in reverse dependency order.
func (c *Container) Close() {
	c.Catalog.Stop()
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if c.Database != nil {
		c.Database.Close()
	}
}
