package orderControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
)

// ParseListQuery reads limit, offset, status, startDate and endDate.
func ParseListQuery(c *gin.Context) (order.ListQuery, error) {
	fields := map[string]string{}
	q := order.ListQuery{
		Status: c.Query("status"),
		Limit:  response.QueryInt(c, "limit", fields),
		Offset: response.QueryInt(c, "offset", fields),
	}
	for key, dst := range map[string]**time.Time{"startDate": &q.StartDate, "endDate": &q.EndDate} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		t, err := parseDate(v, key == "endDate")
		if err != nil {
			fields[key] = "must be RFC 3339 or YYYY-MM-DD"
			continue
		}
		*dst = &t
	}
	if len(fields) > 0 {
		return q, apperr.Validation(fields)
	}
	return q, nil
}

// parseDate accepts a timestamp or a calendar day. A day used as an end
// bound covers the whole day.
func parseDate(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// GET /api/orders
func GetUserOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := ParseListQuery(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		page, err := svc.GetUserOrders(c.Request.Context(), middleware.UserID(c), q)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, page)
	}
}

// POST /api/orders/text
func CreateTextOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input order.TextOrderInput
		if !response.BindJSON(c, &input) {
			return
		}
		o, err := svc.CreateTextOrder(c.Request.Context(), middleware.UserID(c), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusCreated, o)
	}
}

// GET /api/orders/:orderNumber
func GetOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.GetOrderByNumber(c.Request.Context(), c.Param("orderNumber"), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, o)
	}
}

// POST /api/orders/:orderNumber/cancel
func CancelOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.UserID(c)
		o, err := svc.GetOrderByNumber(ctx, c.Param("orderNumber"), userID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		o, err = svc.CancelOrder(ctx, o.ID, userID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, o)
	}
}
