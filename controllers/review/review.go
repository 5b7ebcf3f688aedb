package reviewControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/review"
)

// GET /api/reviews?productId=&limit=&offset=
func GetReviews(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := map[string]string{}
		limit := response.QueryInt(c, "limit", fields)
		offset := response.QueryInt(c, "offset", fields)
		if len(fields) > 0 {
			response.Fail(c, apperr.Validation(fields))
			return
		}
		page, err := svc.List(c.Request.Context(), c.Query("productId"), limit, offset)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, page)
	}
}

// POST /api/reviews
func CreateReview(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input review.CreateInput
		if !response.BindJSON(c, &input) {
			return
		}
		r, err := svc.Create(c.Request.Context(), middleware.UserID(c), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusCreated, r)
	}
}

// PUT /api/reviews/:id
func UpdateReview(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			response.Fail(c, apperr.InvalidInput("review id must be a positive integer"))
			return
		}
		var input review.UpdateInput
		if !response.BindJSON(c, &input) {
			return
		}
		r, err := svc.Update(c.Request.Context(), middleware.UserID(c), uint(id), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, r)
	}
}
