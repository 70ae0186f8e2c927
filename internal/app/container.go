package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/hall-booking-backend/internal/api"
	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/cache"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction     bool
	ProdOrigins      string
	DBPool           *pgxpool.Pool
	RedisAddr        string
	JWTSecret        string
	JWTTTL           time.Duration
	BcryptCost       int
	UploadDir        string
	DefaultStaffPass string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Redis      *redis.Client
	Logger     observability.Logger
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := observability.NewLogger()

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	hallCache := cache.NewRedisCache(redisClient)

	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init picture storage: %w", err)
	}

	// Audit Module
	auditRepo := audit.NewPgxRepository(cfg.DBPool)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool, auditRepo)
	userService := user.NewService(userRepo, passwordHasher)

	// Hall Module
	hallRepo := hall.NewPgxRepository(cfg.DBPool, auditRepo)
	hallService := hall.NewService(hallRepo, passwordHasher, hallCache, store, logger, cfg.DefaultStaffPass)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool, auditRepo)
	bookingService := booking.NewService(bookingRepo, hallService, logger)
	availability := booking.NewAvailabilityService(bookingRepo)
	sweeper := booking.NewSweeper(bookingRepo, logger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UploadDir:      cfg.UploadDir,
		UserService:    userService,
		HallService:    hallService,
		BookingService: bookingService,
		Availability:   availability,
		AuditRepo:      auditRepo,
		Sweeper:        sweeper,
		JWTManager:     jwtManager,
		Logger:         logger,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Redis:      redisClient,
		Logger:     logger,
	}, nil
}
