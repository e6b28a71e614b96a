package routes

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fixify/fixify-server/internal/container"
	"github.com/fixify/fixify-server/internal/handlers"
	"github.com/fixify/fixify-server/internal/middleware"
	"github.com/fixify/fixify-server/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container, allowedOrigins string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(allowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(200, gin.H{
				"status":  "OK",
				"service": "fixify-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.Signup(c.UserService))
		v1.POST("/login", handlers.Login(c.UserService))
		v1.GET("/services", handlers.ListServices(c.CatalogService))
		v1.GET("/services/:id", handlers.GetService(c.CatalogService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(c.JWTSecret, c.Logger))

	userRoutes := protected.Group("/users")
	{
		protected.GET("/profile", func(ctx *gin.Context) {
			claims, exists := ctx.Get("user")
			if !exists {
				ctx.JSON(401, models.ErrorResponse("unauthorized"))
				return
			}
			ctx.JSON(200, models.SuccessResponse(claims, ""))
		})

		userRoutes.GET("/", handlers.ListUsers(c.UserService))
		userRoutes.GET("/:id", handlers.GetUser(c.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(c.UserService))
		userRoutes.POST("/:id/avatar", handlers.UploadAvatar(c.UserService))
		userRoutes.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), handlers.DeleteUser(c.UserService))
	}

	bookingRoutes := protected.Group("/bookings")
	{
		bookingRoutes.POST("/", handlers.CreateBooking(c.BookingService))
		bookingRoutes.GET("/", handlers.ListBookings(c.BookingService))
		bookingRoutes.GET("/:id", handlers.GetBooking(c.BookingService))
		bookingRoutes.PATCH("/:id", handlers.UpdateBooking(c.BookingService))
		bookingRoutes.POST("/:id/cancel", handlers.CancelBooking(c.BookingService))
		bookingRoutes.POST("/:id/assign",
			middleware.RequireRoles(models.RoleAdmin),
			handlers.AssignContractor(c.BookingService))
		bookingRoutes.POST("/:id/reject",
			middleware.RequireRoles(models.RoleContractor, models.RoleAdmin),
			handlers.RejectBooking(c.BookingService))
		bookingRoutes.DELETE("/:id",
			middleware.RequireRoles(models.RoleAdmin),
			handlers.DeleteBooking(c.BookingService))

		bookingRoutes.GET("/customer/:customer_id", handlers.ListBookingsByCustomer(c.BookingService))
		bookingRoutes.GET("/contractor/:contractor_id", handlers.ListBookingsByContractor(c.BookingService))
		bookingRoutes.GET("/contractor/:contractor_id/rejected", handlers.ListRejectedByContractor(c.BookingService))
	}

	serviceRoutes := protected.Group("/services")
	serviceRoutes.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		serviceRoutes.POST("/", handlers.CreateService(c.CatalogService))
		serviceRoutes.PATCH("/:id", handlers.UpdateService(c.CatalogService))
		serviceRoutes.DELETE("/:id", handlers.DeleteService(c.CatalogService))
	}

	return r
}
