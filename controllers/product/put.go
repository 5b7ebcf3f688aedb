package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
)

// UpsertProduct creates or replaces the product at :id. The id in the path
// wins over any id in the body.
// PUT /api/admin/products/:id
func UpsertProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.Product
		if !response.BindJSON(c, &input) {
			return
		}
		p, err := svc.Upsert(c.Request.Context(), c.Param("id"), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, p)
	}
}
