package response

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/tealeg/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSX sends file as a download. The workbook is rendered fully before any
// byte is written so a failure still produces an error envelope.
func XLSX(c *gin.Context, filename string, file *xlsx.File) {
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		Fail(c, apperr.Internal(err))
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
