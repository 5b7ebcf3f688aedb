package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
)

// SetupAuthRoutes registers all “/auth/*” endpoints.
func SetupAuthRoutes(api *gin.RouterGroup, deps Dependencies) {
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit("auth", deps.APILimiter))
	{
		// Firebase ID token → session JWT
		authGroup.POST("/login", auth.LoginHandler(deps.Login))
	}
}
