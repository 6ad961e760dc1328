package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vks.la/patrol/core"
	"vks.la/patrol/infrastructure/filesystem"
	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/utils"
	"vks.la/patrol/web/common"
)

type inspectionRequest struct {
	Timestamp       common.LocalDateTime `json:"timestamp"`
	Inspector       string               `json:"inspector" binding:"required"`
	SiteName        string               `json:"siteName" binding:"required"`
	GuardName       string               `json:"guardName"`
	Score           float64              `json:"score"`
	DurationMinutes float64              `json:"durationMinutes"`

	Uniform      string `json:"uniform"`
	Flashlight   string `json:"flashlight"`
	DefenseTools string `json:"defenseTools"`
	Logbook      string `json:"logbook"`
	Gates        string `json:"gates"`
	Lighting     string `json:"lighting"`
	FireSafety   string `json:"fireSafety"`

	Issues      string  `json:"issues"`
	Notes       string  `json:"notes"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	PhotoBase64 string  `json:"photoBase64"`
}

// InspectionHandler records a supervisor site-visit report. The photo is
// uploaded before the write lock is taken; an upload failure degrades to an
// error marker in the photo column, it never rejects the report.
func InspectionHandler(st store.TabularStore, blobs filesystem.BlobStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req inspectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		log := model.InspectionLog{
			Timestamp:       req.Timestamp.Time,
			Inspector:       req.Inspector,
			SiteName:        req.SiteName,
			GuardName:       req.GuardName,
			Score:           req.Score,
			DurationMinutes: req.DurationMinutes,
			Uniform:         req.Uniform,
			Flashlight:      req.Flashlight,
			DefenseTools:    req.DefenseTools,
			Logbook:         req.Logbook,
			Gates:           req.Gates,
			Lighting:        req.Lighting,
			FireSafety:      req.FireSafety,
			Issues:          req.Issues,
			Notes:           req.Notes,
			Lat:             req.Lat,
			Lng:             req.Lng,
		}

		ctx := c.Request.Context()
		if req.PhotoBase64 != "" && blobs != nil {
			data, err := core.DecodePhotoBase64(req.PhotoBase64)
			if err != nil {
				logger.Warn("unreadable inspection photo", zap.String("site", req.SiteName), zap.Error(err))
				log.Photo = core.PhotoUploadFailed
			} else {
				name := fmt.Sprintf("inspection-%s.jpg", uuid.NewString())
				url, err := blobs.Upload(ctx, data, "image/jpeg", name)
				if err != nil {
					logger.Warn("inspection photo upload failed", zap.String("site", req.SiteName), zap.Error(err))
					log.Photo = core.PhotoUploadFailed
				} else {
					log.Photo = url
				}
			}
		}

		err := st.WithLock(ctx, func() error {
			if err := st.AppendRow(ctx, model.TableInspections, log.ToRecord()); err != nil {
				return err
			}
			core.MarkDataChanged(ctx, st, utils.VientianeNow(), logger)
			return nil
		})
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
			"saved": true,
			"photo": log.Photo,
		}))
	}
}
