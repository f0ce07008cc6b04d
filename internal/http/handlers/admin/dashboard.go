package admin

import (
	"errors"
	"strings"

	"github.com/coinvo/funnel-api/internal/http/response"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats 获取漏斗看板汇总
func (h *Handler) GetDashboardStats(c *gin.Context) {
	input := service.DashboardQueryInput{
		StartDate: strings.TrimSpace(c.Query("start_date")),
		EndDate:   strings.TrimSpace(c.Query("end_date")),
	}

	stats, err := h.DashboardService.GetStats(input)
	if err != nil {
		if errors.Is(err, service.ErrDashboardRangeInvalid) {
			respondError(c, response.CodeBadRequest, "invalid date range", nil)
			return
		}
		respondError(c, response.CodeInternal, "dashboard fetch failed", err)
		return
	}

	response.Success(c, stats)
}
