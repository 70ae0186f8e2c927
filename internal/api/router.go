package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hall-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
	hallHttp "github.com/nekogravitycat/hall-booking-backend/internal/hall/http"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// Config carries everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	UploadDir    string

	UserService    user.Service
	HallService    hall.Service
	BookingService booking.Service
	Availability   booking.AvailabilityService
	AuditRepo      audit.Repository
	Sweeper        *booking.Sweeper
	JWTManager     *auth.JWTManager
	Logger         observability.Logger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(observability.MetricsMiddleware())

	// The daily expiry sweep piggybacks on request traffic.
	r.Use(cfg.Sweeper.Middleware())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// siteAdminMiddleware: Further checks if the authenticated user is a site admin.
	siteAdminMiddleware := RequireSiteAdmin(cfg.UserService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	authHandler := NewAuthHandler(cfg.UserService, cfg.JWTManager)
	logsHandler := NewLogsHandler(cfg.AuditRepo)
	hallHandler := hallHttp.NewHandler(cfg.HallService, cfg.Availability, cfg.Logger)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	// Hall pictures are served straight from the upload directory.
	r.Static("/uploads", cfg.UploadDir)

	// Prometheus metrics endpoint.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/password", authMiddleware, authHandler.ChangePassword)
		v1.GET("/me", authMiddleware, authHandler.Me)

		v1.GET("/dashboard/logs", authMiddleware, logsHandler.ListHallLogs)
		v1.GET("/admin/logs", authMiddleware, siteAdminMiddleware, logsHandler.ListAllLogs)

		hallHttp.RegisterRoutes(v1, hallHandler, authMiddleware, siteAdminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
	}

	return r
}
