package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
)

func SetupOrderRoutes(api *gin.RouterGroup, deps Dependencies) {
	orders := api.Group("/orders")
	orders.Use(middleware.ValidateToken(deps.Sessions, false), middleware.RateLimit("api", deps.APILimiter))
	{
		// The caller's orders, newest first
		orders.GET("", orderControllers.GetUserOrders(deps.Orders))

		// Log an order taken by text or phone
		orders.POST("/text", orderControllers.CreateTextOrder(deps.Orders))

		orders.GET("/:orderNumber", orderControllers.GetOrder(deps.Orders))
		orders.POST("/:orderNumber/cancel", orderControllers.CancelOrder(deps.Orders))

		// One-shot tracking snapshot from the stored status
		orders.GET("/:orderNumber/tracking", orderControllers.GetTracking(deps.Tracking))
	}

	// Stream routes also accept ?access_token=.
	streams := api.Group("/orders")
	streams.Use(middleware.ValidateToken(deps.Sessions, true))
	{
		streams.GET("/:orderNumber/tracking/stream", orderControllers.StreamTracking(deps.Tracking))
		streams.GET("/:orderNumber/tracking/ws", orderControllers.TrackingWebSocket(deps.Tracking))
	}
}
