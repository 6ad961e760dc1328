package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vks.la/patrol/core"
	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/utils"
	"vks.la/patrol/web/common"
)

type handoverRequest struct {
	SiteName string `json:"siteName" binding:"required"`
	Author   string `json:"author"`
	Comment  string `json:"comment" binding:"required"`
}

// HandoverHandler saves a shift handover note for a site.
func HandoverHandler(st store.TabularStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req handoverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		note := model.HandoverComment{
			SiteName: req.SiteName,
			Author:   req.Author,
			Comment:  req.Comment,
		}

		ctx := c.Request.Context()
		err := st.WithLock(ctx, func() error {
			if err := st.AppendRow(ctx, model.TableHandover, note.ToRecord()); err != nil {
				return err
			}
			core.MarkDataChanged(ctx, st, utils.VientianeNow(), logger)
			return nil
		})
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"saved": true}))
	}
}
