package productcontroller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/tealeg/xlsx"
)

// Column order shared by export and import.
var productColumns = []string{
	"ID", "Name", "Category", "Brand", "Description", "Price",
	"ImageURL", "Strain", "THCPercent", "CBDPercent", "WeightGrams", "InStock",
	"Rating", "ReviewCount", "UpdatedAt",
}

// ExportProductsToExcel accepts the same filters as the public listing.
// GET /api/admin/products/export-excel
func ExportProductsToExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := ParseFilter(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		products, err := svc.All(c.Request.Context(), f)
		if err != nil {
			response.Fail(c, err)
			return
		}
		file, err := productsWorkbook(products)
		if err != nil {
			response.Fail(c, apperr.Internal(err))
			return
		}
		response.XLSX(c, "products.xlsx", file)
	}
}

func productsWorkbook(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}
	header := sheet.AddRow()
	for _, h := range productColumns {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(p.ImageURL)
		row.AddCell().SetString(string(p.Strain))
		row.AddCell().SetString(optFloat(p.THCPercent))
		row.AddCell().SetString(optFloat(p.CBDPercent))
		row.AddCell().SetString(optFloat(p.WeightGrams))
		row.AddCell().SetString(strconv.FormatBool(p.InStock))
		row.AddCell().SetFloat(p.Rating)
		row.AddCell().SetInt(int(p.ReviewCount))
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
