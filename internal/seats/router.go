package seats

import (
	"seatwise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(router *gin.RouterGroup, controller Controller) {
	// Seat map is public: browsing does not require an account. The
	// listing itself triggers the expiry sweep.
	router.GET("/events/:id/seats", controller.ListSeats)

	seats := router.Group("/seats")
	{
		seats.GET("/:id", controller.GetSeat)

		// Holding requires an authenticated actor
		protected := seats.Group("")
		protected.Use(middleware.JWTAuth())
		{
			protected.POST("/:id/hold", controller.HoldSeat)
			protected.DELETE("/:id/hold", controller.ReleaseSeat)
		}
	}
}
