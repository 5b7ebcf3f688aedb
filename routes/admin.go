package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/admin"
	productcontroller "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/product"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires the API key or an admin session.
func SetupAdminRoutes(api *gin.RouterGroup, deps Dependencies) {
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminAccess(deps.AdminAPIKey, deps.Sessions))
	{
		// ─────────── Orders ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", adminController.GetAllOrders(deps.Orders))
			orderAdmin.GET("/export", adminController.ExportOrders(deps.Orders))
			orderAdmin.PUT("/:orderNumber/status", adminController.UpdateOrderStatus(deps.Orders))
		}

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.PUT("/:id", productcontroller.UpsertProduct(deps.Catalog))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(deps.Catalog))
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(deps.Catalog))
		}

		cartMgmt := adminGroup.Group("/user-cart")
		{
			cartMgmt.GET("/:user_id", adminController.GetUserCart(deps.Carts))
		}
	}
}
