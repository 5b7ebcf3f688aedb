package userControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/profile"
)

// GET /api/profile
func GetProfile(svc *profile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, p)
	}
}

// PUT /api/profile
func UpdateProfile(svc *profile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input profile.UpdateInput
		if !response.BindJSON(c, &input) {
			return
		}
		p, err := svc.Update(c.Request.Context(), middleware.UserID(c), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, p)
	}
}
