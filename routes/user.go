package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/cart"
	productcontroller "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/product"
	reviewControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/review"
	userControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/user"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
)

// SetupCatalogRoutes registers the read-only product and review listings.
func SetupCatalogRoutes(api *gin.RouterGroup, deps Dependencies) {
	public := api.Group("")
	public.Use(middleware.RateLimit("catalog", deps.APILimiter))
	{
		public.GET("/products", productcontroller.GetProducts(deps.Catalog))        // GET /api/products
		public.GET("/products/:id", productcontroller.GetProductByID(deps.Catalog)) // GET /api/products/:id
		public.GET("/reviews", reviewControllers.GetReviews(deps.Reviews))          // GET /api/reviews?productId=
	}
}

// SetupUserRoutes registers cart, profile and review writes. Requires a session.
func SetupUserRoutes(api *gin.RouterGroup, deps Dependencies) {
	userGroup := api.Group("")
	userGroup.Use(middleware.ValidateToken(deps.Sessions, false), middleware.RateLimit("api", deps.APILimiter))
	{
		// ──────────────── Profile ────────────────
		userGroup.GET("/profile", userControllers.GetProfile(deps.Profiles))
		userGroup.PUT("/profile", userControllers.UpdateProfile(deps.Profiles))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetCart(deps.Carts))                        // GET /api/cart
			cartGroup.DELETE("", cartControllers.ClearCart(deps.Carts))                   // DELETE /api/cart
			cartGroup.POST("/items", cartControllers.AddItem(deps.Carts))                 // POST /api/cart/items
			cartGroup.PUT("/items/:productId", cartControllers.UpdateItem(deps.Carts))    // PUT /api/cart/items/:productId
			cartGroup.DELETE("/items/:productId", cartControllers.RemoveItem(deps.Carts)) // DELETE /api/cart/items/:productId
		}

		// ──────────────── Reviews ────────────────
		userGroup.POST("/reviews", reviewControllers.CreateReview(deps.Reviews))
		userGroup.PUT("/reviews/:id", reviewControllers.UpdateReview(deps.Reviews))
	}
}
