package productcontroller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

const maxReportedRowErrors = 50

type RowError struct {
	Row     int    `json:"row"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type ImportResult struct {
	Upserted int        `json:"upserted"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

// ImportProductsFromExcel upserts every row of the first sheet, laid out in
// productColumns order. Bad rows are skipped and reported.
// POST /api/admin/products/import-excel (multipart field "file")
func ImportProductsFromExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			response.Fail(c, apperr.InvalidInput("excel file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Fail(c, apperr.Internal(err))
			return
		}
		defer file.Close()

		book, err := xlsx.OpenReaderAt(file, header.Size)
		if err != nil {
			response.Fail(c, apperr.Wrap(apperr.CodeInvalidInput, "file is not a readable xlsx workbook", err))
			return
		}
		if len(book.Sheets) == 0 || book.Sheets[0].MaxRow < 2 {
			response.Fail(c, apperr.InvalidInput("excel file is empty or missing header row"))
			return
		}

		result := importRows(c, svc, book.Sheets[0])
		logging.From(c).Info("product import finished", "upserted", result.Upserted, "skipped", result.Skipped)
		response.OK(c, http.StatusOK, result)
	}
}

func importRows(c *gin.Context, svc *catalog.Service, sheet *xlsx.Sheet) ImportResult {
	var result ImportResult
	fail := func(row int, id string, err error) {
		result.Skipped++
		if len(result.Errors) < maxReportedRowErrors {
			re := RowError{Row: row + 1, ID: id, Error: err.Error()}
			if e, ok := apperr.As(err); ok {
				re.Error, re.Details = e.Message, e.Details
			}
			result.Errors = append(result.Errors, re)
		}
	}

	for i := 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		p, err := productFromRow(row)
		if err != nil {
			fail(i, p.ID, err)
			continue
		}
		if _, err := svc.Upsert(c.Request.Context(), p.ID, p); err != nil {
			fail(i, p.ID, err)
			continue
		}
		result.Upserted++
	}
	return result
}

func productFromRow(row *xlsx.Row) (models.Product, error) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	p := models.Product{
		ID:          get(0),
		Name:        get(1),
		Category:    get(2),
		Brand:       get(3),
		Description: get(4),
		ImageURL:    get(6),
		Strain:      models.StrainType(strings.ToLower(get(7))),
	}
	price, err := decimal.NewFromString(get(5))
	if err != nil {
		return p, fmt.Errorf("price %q is not a number", get(5))
	}
	p.Price = price

	for col, dst := range map[int]**float64{8: &p.THCPercent, 9: &p.CBDPercent, 10: &p.WeightGrams} {
		v := get(col)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%s %q is not a number", productColumns[col], v)
		}
		*dst = &f
	}

	p.InStock = true
	if v := get(11); v != "" {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return p, fmt.Errorf("InStock %q is not true or false", v)
		}
		p.InStock = b
	}
	return p, nil
}
