// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"seatwise/internal/auth"
	"seatwise/internal/events"
	"seatwise/internal/reservations"
	"seatwise/internal/seats"
	"seatwise/internal/shared/config"
	"seatwise/internal/shared/database"
	"seatwise/internal/shared/utils/qr"
	"seatwise/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier reservations.TicketNotifier
}

// NewRouter creates a new router instance. notifier may be nil when the
// notification pipeline is unavailable; ticket emails are then skipped.
func NewRouter(cfg *config.Config, db *database.DB, notifier reservations.TicketNotifier) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Seat service is created first: the events router needs it as
		// the layout generator behind event publishing.
		seatService := r.setupSeatRoutes(api)
		r.setupEventRoutes(api, seatService)
		r.setupReservationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatwise-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatwise-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) seats.Service {
	seatRepo := seats.NewRepository(r.db.GetPostgreSQL())
	seatService := seats.NewService(seatRepo, r.config.Booking.SeatHoldTTL)
	seatController := seats.NewController(seatService)

	seats.SetupSeatRoutes(rg, seatController)
	return seatService
}

func (r *Router) setupEventRoutes(rg *gin.RouterGroup, generator events.SeatGenerator) {
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	eventService := events.NewService(eventRepo)
	eventService.SetCacheService(cache.NewService(r.db.GetRedisClient()))
	eventService.SetSeatGenerator(generator)
	eventController := events.NewController(eventService)

	events.SetupEventRoutes(rg, eventController)
}

func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservationRepo := reservations.NewRepository(r.db.GetPostgreSQL())
	qrEncoder := qr.NewEncoder(qr.DefaultSize)
	reservationService := reservations.NewService(reservationRepo, qrEncoder, r.notifier, r.config.Booking)
	reservationController := reservations.NewController(reservationService)

	reservations.SetupReservationRoutes(rg, reservationController)
}
