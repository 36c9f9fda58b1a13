package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/controllers"
	"github.com/kendall-kelly/bakehouse-api/middleware"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"gorm.io/gorm"
)

// Controllers groups the HTTP handlers mounted by Register
type Controllers struct {
	Auth       *controllers.AuthController
	Users      *controllers.UserController
	Products   *controllers.ProductController
	CustomCake *controllers.CustomCakeController
	Orders     *controllers.OrderController
	Teams      *controllers.TeamController
	Chat       *controllers.ChatController
	Reviews    *controllers.ReviewController
}

// Options holds the middleware shared by the routes
type Options struct {
	DB           *gorm.DB
	RequireAuth  gin.HandlerFunc
	LoginLimiter gin.HandlerFunc
}

// Register mounts every API route on router under /api
func Register(router *gin.Engine, ctl Controllers, opts Options) {
	api := router.Group("/api")

	api.GET("/health", healthCheck(opts.DB))

	auth := api.Group("/auth")
	{
		auth.POST("/register", ctl.Auth.Register)
		if opts.LoginLimiter != nil {
			auth.POST("/login", opts.LoginLimiter, ctl.Auth.Login)
		} else {
			auth.POST("/login", ctl.Auth.Login)
		}
	}

	api.GET("/products", ctl.Products.ListProducts)
	api.GET("/products/:id", ctl.Products.GetProduct)
	api.GET("/main-bakers", ctl.Teams.ListMainBakers)
	api.GET("/bakers/:id/rating", ctl.Reviews.GetBakerRating)
	api.GET("/bakers/:id/reviews", ctl.Reviews.ListBakerReviews)

	authed := api.Group("")
	authed.Use(opts.RequireAuth)
	{
		authed.GET("/users/me", ctl.Users.GetMyProfile)
		authed.PUT("/users/me", ctl.Users.UpdateMyProfile)
		authed.POST("/users/me/image", ctl.Users.UploadProfileImage)

		bakery := middleware.RequireRole(models.RoleMainBaker, models.RoleAdmin)
		authed.POST("/products", bakery, ctl.Products.CreateProduct)
		authed.PUT("/products/:id", bakery, ctl.Products.UpdateProduct)
		authed.POST("/products/:id/image", bakery, ctl.Products.UploadProductImage)

		authed.POST("/custom-cakes", middleware.RequireRole(models.RoleCustomer), ctl.CustomCake.CreateCustomCake)
		authed.GET("/custom-cakes/:id", ctl.CustomCake.GetCustomCake)

		authed.POST("/orders", middleware.RequireRole(models.RoleCustomer), ctl.Orders.CreateOrder)
		authed.GET("/orders", ctl.Orders.ListOrders)
		authed.GET("/orders/:id", ctl.Orders.GetOrder)
		authed.PATCH("/orders/:id/status", ctl.Orders.UpdateOrderStatus)
		authed.PATCH("/orders/:id/assign", bakery, ctl.Orders.AssignBakers)

		authed.GET("/main-bakers/:id/team", ctl.Teams.GetTeam)
		authed.POST("/baker-applications", ctl.Teams.SubmitApplication)
		authed.GET("/baker-applications/mine", ctl.Teams.MyApplications)
		authed.GET("/baker-applications", bakery, ctl.Teams.ListApplications)
		authed.DELETE("/team/members/:juniorId", bakery, ctl.Teams.RemoveMember)

		admin := authed.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			admin.PATCH("/baker-applications/:id/approve", ctl.Teams.ApproveApplication)
			admin.PATCH("/baker-applications/:id/reject", ctl.Teams.RejectApplication)
		}

		authed.POST("/chats", ctl.Chat.PostMessage)
		authed.GET("/chats/:orderId", ctl.Chat.ListMessages)
		authed.GET("/chats/:orderId/stream", ctl.Chat.StreamOrder)
		authed.PATCH("/chats/:orderId/read", ctl.Chat.MarkRead)

		authed.GET("/direct-messages", ctl.Chat.ListConversations)
		authed.GET("/direct-messages/stream", ctl.Chat.StreamInbox)
		authed.GET("/direct-messages/:userId", ctl.Chat.ListConversation)
		authed.POST("/direct-messages", ctl.Chat.PostDirectMessage)

		authed.POST("/reviews", middleware.RequireRole(models.RoleCustomer), ctl.Reviews.SubmitReview)
	}
}

// healthCheck reports whether the API and its database are reachable
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "DATABASE_CONNECTION_ERROR", "Database connection failed", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Bakehouse API is running",
		})
	}
}
