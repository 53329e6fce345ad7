package reservations

import (
	"seatwise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReservationRoutes(router *gin.RouterGroup, controller Controller) {
	reservations := router.Group("/reservations")
	reservations.Use(middleware.JWTAuth())
	{
		reservations.POST("", controller.CreateReservation)
		reservations.GET("/:id", controller.GetReservation)
		reservations.POST("/:id/cancel", controller.CancelReservation)
	}

	users := router.Group("/users/me")
	users.Use(middleware.JWTAuth())
	{
		users.GET("/reservations", controller.ListMyReservations)
	}

	// Approval queue
	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireStaff())
	{
		admin.POST("/reservations/:id/approve", controller.ApproveReservation)
		admin.POST("/reservations/:id/reject", controller.RejectReservation)
		admin.GET("/events/:id/reservations", controller.ListEventReservations)
	}
}
