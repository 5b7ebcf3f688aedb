package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
)

type UpdateQuantityInput struct {
	Quantity *int `json:"quantity"`
}

// GET /api/cart
func GetCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.GetCart(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, view)
	}
}

// POST /api/cart/items
func AddItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input cart.ItemInput
		if !response.BindJSON(c, &input) {
			return
		}
		view, err := svc.AddItem(c.Request.Context(), middleware.UserID(c), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, view)
	}
}

// PUT /api/cart/items/:productId
func UpdateItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateQuantityInput
		if !response.BindJSON(c, &input) {
			return
		}
		if input.Quantity == nil {
			response.Fail(c, apperr.Validation(map[string]string{"quantity": "is required"}))
			return
		}
		view, err := svc.UpdateItemQuantity(c.Request.Context(), middleware.UserID(c), c.Param("productId"), *input.Quantity)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, view)
	}
}

// DELETE /api/cart/items/:productId
func RemoveItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.RemoveItem(c.Request.Context(), middleware.UserID(c), c.Param("productId"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, view)
	}
}

// DELETE /api/cart
func ClearCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.ClearCart(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, view)
	}
}
