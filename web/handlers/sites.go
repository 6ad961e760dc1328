package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vks.la/patrol/cache"
	"vks.la/patrol/core"
	"vks.la/patrol/web/common"
)

const defaultAggregateWindowDays = 7

// SiteAggregateHandler serves the per-site compliance dashboard view over a
// trailing window of days (?days=N, default 7).
func SiteAggregateHandler(agg *core.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := defaultAggregateWindowDays
		if raw := c.Query("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, common.NewErrorResponse("Query parameter 'days' must be a positive integer"))
				return
			}
			days = parsed
		}

		aggregates, err := agg.Aggregate(c.Request.Context(), days)
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewListResponse(aggregates, len(aggregates)))
	}
}

// SiteConfigHandler resolves a site reference and returns its effective
// merged configuration. Unknown references still answer with defaults, the
// same best-effort behaviour the scan path has.
func SiteConfigHandler(dir *cache.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("ref")

		sites, err := dir.Sites(c.Request.Context())
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}
		configs, err := dir.SiteConfigs(c.Request.Context())
		if err != nil {
			c.JSON(httpStatusFor(err), common.NewErrorResponse(err.Error()))
			return
		}

		canonical := core.ResolveSite(ref, sites)
		cfg := core.ResolveConfig(canonical, sites, configs)

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
			"canonicalSiteId": canonical,
			"config":          cfg,
		}))
	}
}
