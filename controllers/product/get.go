package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
)

// GetProductByID returns a single catalog entry.
// URL param: /products/:id
func GetProductByID(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, p)
	}
}
