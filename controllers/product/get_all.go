package productcontroller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/shopspring/decimal"
)

// ParseFilter reads category, search, minPrice, maxPrice, inStock, sort,
// limit and offset.
func ParseFilter(c *gin.Context) (models.ProductFilter, error) {
	fields := map[string]string{}
	f := models.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     models.ProductSort(c.Query("sort")),
		Limit:    response.QueryInt(c, "limit", fields),
		Offset:   response.QueryInt(c, "offset", fields),
	}
	f.MinPrice = queryDecimal(c, "minPrice", fields)
	f.MaxPrice = queryDecimal(c, "maxPrice", fields)
	if v := c.Query("inStock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields["inStock"] = "must be true or false"
		} else {
			f.InStock = &b
		}
	}
	if len(fields) > 0 {
		return f, apperr.Validation(fields)
	}
	return f, nil
}

func queryDecimal(c *gin.Context, key string, fields map[string]string) *decimal.Decimal {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		fields[key] = "must be a non-negative number"
		return nil
	}
	return &d
}

// GET /api/products
func GetProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := ParseFilter(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		page, err := svc.List(c.Request.Context(), f)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, page)
	}
}
