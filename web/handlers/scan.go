package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vks.la/patrol/core"
	"vks.la/patrol/web/common"
)

// ScanHandler accepts a QR scan submission and runs it through the scan
// state machine. Duplicate patrol scans still answer 200 with the
// ALREADY_SAVED action so retrying clients converge.
func ScanHandler(p *core.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req core.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		result, err := p.Process(c.Request.Context(), req)
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(result))
	}
}
