package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vks.la/patrol/core"
	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/web/common"
)

// DataChangedHandler returns the last-update marker so dashboards can poll
// cheaply instead of refetching whole tables.
func DataChangedHandler(st store.TabularStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := st.ReadAll(c.Request.Context(), model.TableMeta)
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}

		lastUpdate := ""
		for _, row := range rows {
			if row.Get("key") == core.MetaLastUpdateKey {
				lastUpdate = row.Get("value")
			}
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
			"lastUpdate": lastUpdate,
		}))
	}
}
