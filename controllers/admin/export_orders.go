package adminController

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	orderControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

var orderColumns = []string{
	"OrderNumber", "CreatedAt", "Status", "Type", "UserID", "Items",
	"Subtotal", "Tax", "DeliveryFee", "Tip", "Total",
	"Street", "City", "State", "ZIP", "Phone", "Email", "PaymentIntentID",
}

// ExportOrders writes every order in the requested range (startDate,
// endDate, status) to a workbook, one row per order plus an item sheet.
// GET /api/admin/orders/export
func ExportOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := orderControllers.ParseListQuery(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		orders, err := svc.Export(c.Request.Context(), q)
		if err != nil {
			response.Fail(c, err)
			return
		}
		file, err := ordersWorkbook(orders)
		if err != nil {
			response.Fail(c, apperr.Internal(err))
			return
		}
		response.XLSX(c, "orders.xlsx", file)
	}
}

func ordersWorkbook(orders []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}
	items, err := file.AddSheet("Items")
	if err != nil {
		return nil, err
	}
	addHeader(sheet, orderColumns...)
	addHeader(items, "OrderNumber", "ProductID", "Name", "Price", "Quantity", "LineTotal")

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(o.OrderNumber)
		row.AddCell().SetString(o.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(string(o.Type))
		row.AddCell().SetString(o.UserID)
		row.AddCell().SetInt(len(o.Items))
		for _, amount := range []string{
			o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.DeliveryFee.StringFixed(2),
			o.Tip.StringFixed(2), o.Total.StringFixed(2),
		} {
			row.AddCell().SetString(amount)
		}
		a := o.DeliveryAddress
		row.AddCell().SetString(strings.TrimSpace(strings.Join([]string{a.HouseNumber, a.Street, a.Apartment}, " ")))
		row.AddCell().SetString(a.City)
		row.AddCell().SetString(a.State)
		row.AddCell().SetString(a.Zip)
		row.AddCell().SetString(o.ContactPhone)
		row.AddCell().SetString(o.ContactEmail)
		row.AddCell().SetString(o.PaymentIntentID)

		for _, it := range o.Items {
			r := items.AddRow()
			r.AddCell().SetString(o.OrderNumber)
			r.AddCell().SetString(it.ProductID)
			r.AddCell().SetString(it.Name)
			r.AddCell().SetString(it.Price.StringFixed(2))
			r.AddCell().SetInt(it.Quantity)
			r.AddCell().SetString(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2))
		}
	}
	return file, nil
}

func addHeader(sheet *xlsx.Sheet, cols ...string) {
	row := sheet.AddRow()
	for _, h := range cols {
		row.AddCell().SetString(h)
	}
}
