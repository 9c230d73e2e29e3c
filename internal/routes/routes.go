package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-app-server/internal/chat"
	"marketplace-app-server/internal/config"
	"marketplace-app-server/internal/handlers"
	"marketplace-app-server/internal/middleware"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	chatHandler := handlers.NewChatHandler(db)
	productHandler := handlers.NewProductHandler(db)

	// Live messaging channel; the gateway authenticates its own handshake.
	registry := chat.NewPresenceRegistry()
	gateway := chat.NewGateway(db, cfg, registry, logger)
	router.GET("/ws", gateway.Handle)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		productRoutes := public.Group("/products")
		{
			productRoutes.GET("", productHandler.GetAllProducts)
			productRoutes.GET("/recent", productHandler.GetRecentProducts)
			productRoutes.GET("/search", productHandler.SearchProducts)
			productRoutes.GET("/category/:category", productHandler.GetProductsByCategory)
			productRoutes.GET("/:productId", productHandler.GetProductByID)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Messaging collaborator surface (the live path is /ws)
		chatRoutes := private.Group("/chat")
		{
			chatRoutes.GET("/contacts", chatHandler.GetContacts)
			chatRoutes.GET("/:friendId", chatHandler.GetChatHistory)
		}

		private.POST("/products", productHandler.CreateProduct)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "message": "Backend server is running"})
	})
}
