package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
)

// LoginHandler serves POST /api/auth/login.
func LoginHandler(l *Login) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if !response.BindJSON(c, &input) {
			return
		}
		result, err := l.Login(c.Request.Context(), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, result)
	}
}
