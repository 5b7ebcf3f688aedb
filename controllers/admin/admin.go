package adminController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orderControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GET /api/admin/orders
func GetAllOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := orderControllers.ParseListQuery(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		page, err := svc.ListOrders(c.Request.Context(), q)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, page)
	}
}

// PUT /api/admin/orders/:orderNumber/status
func UpdateOrderStatus(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if !response.BindJSON(c, &req) {
			return
		}
		o, err := svc.Transition(c.Request.Context(), c.Param("orderNumber"), models.OrderStatus(req.Status))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, o)
	}
}

// GET /api/admin/user-cart/:user_id
func GetUserCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.GetCart(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, v)
	}
}
