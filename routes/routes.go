package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"room-booking/controllers"
	"room-booking/middleware"
)

func normalizeOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, part := range raw {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(
	bc *controllers.BookingController,
	sc *controllers.SettingsController,
	corsOrigins []string,
) *gin.Engine {
	controllers.RegisterValidations()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())

	origins := normalizeOrigins(corsOrigins)
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/settings", sc.GetSettings)

		bookings := api.Group("/bookings")
		{
			bookings.GET("", bc.ListBookings)
			bookings.POST("", bc.CreateBooking)

			// static segments must stay ahead of /:id
			bookings.GET("/upcoming", bc.UpcomingBookings)
			bookings.GET("/history", bc.HistoryBookings)
			bookings.GET("/conflicts", bc.FindConflicts)

			bookings.GET("/:id", bc.GetBooking)
			bookings.DELETE("/:id", bc.CancelBooking)
		}

		days := api.Group("/days/:date")
		{
			days.GET("/bookings", bc.DayBookings)
			days.GET("/timeline", bc.DayTimeline)
		}
	}

	return r
}
