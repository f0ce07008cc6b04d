package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/coinvo/funnel-api/internal/http/response"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetTrackingLinks 获取追踪链接列表
func (h *Handler) GetTrackingLinks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var funnelID uint
	if raw := strings.TrimSpace(c.Query("funnel_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		funnelID = uint(parsed)
	}

	var isActive *bool
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		isActive = &parsed
	}

	links, total, err := h.TrackingLinkService.List(service.TrackingLinkListInput{
		Page:     page,
		PageSize: pageSize,
		FunnelID: funnelID,
		Source:   c.Query("source"),
		Search:   c.Query("search"),
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "tracking link fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, links, pagination)
}

// GetTrackingLink 获取追踪链接详情
func (h *Handler) GetTrackingLink(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	link, err := h.TrackingLinkService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "tracking link not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking link fetch failed", err)
		return
	}

	response.Success(c, link)
}

// CreateTrackingLinkRequest 创建追踪链接请求
type CreateTrackingLinkRequest struct {
	FunnelID  uint       `json:"funnel_id" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	Source    string     `json:"source" binding:"required"`
	Slug      string     `json:"slug"`
	ShortCode string     `json:"short_code"`
	IsActive  *bool      `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateTrackingLink 创建追踪链接
func (h *Handler) CreateTrackingLink(c *gin.Context) {
	var req CreateTrackingLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	link, err := h.TrackingLinkService.Create(service.TrackingLinkCreateInput{
		FunnelID:  req.FunnelID,
		Name:      req.Name,
		Source:    req.Source,
		Slug:      req.Slug,
		ShortCode: req.ShortCode,
		IsActive:  req.IsActive,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			respondError(c, response.CodeBadRequest, "slug already exists", nil)
			return
		}
		if errors.Is(err, service.ErrShortCodeExists) {
			respondError(c, response.CodeBadRequest, "short code already exists", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking link create failed", err)
		return
	}

	response.Success(c, link)
}

// UpdateTrackingLinkRequest 更新追踪链接请求
type UpdateTrackingLinkRequest struct {
	Name           *string    `json:"name"`
	Source         *string    `json:"source"`
	Slug           *string    `json:"slug"`
	IsActive       *bool      `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ClearExpiresAt bool       `json:"clear_expires_at"`
}

// UpdateTrackingLink 更新追踪链接
func (h *Handler) UpdateTrackingLink(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateTrackingLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	link, err := h.TrackingLinkService.Update(id, service.TrackingLinkUpdateInput{
		Name:           req.Name,
		Source:         req.Source,
		Slug:           req.Slug,
		IsActive:       req.IsActive,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiresAt: req.ClearExpiresAt,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "tracking link not found", nil)
			return
		}
		if errors.Is(err, service.ErrSlugExists) {
			respondError(c, response.CodeBadRequest, "slug already exists", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking link update failed", err)
		return
	}

	response.Success(c, link)
}

// ToggleTrackingLink 切换追踪链接启用状态
func (h *Handler) ToggleTrackingLink(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	link, err := h.TrackingLinkService.Toggle(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "tracking link not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking link update failed", err)
		return
	}

	response.Success(c, link)
}

// DeleteTrackingLink 删除追踪链接（级联清理点击数据）
func (h *Handler) DeleteTrackingLink(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.TrackingLinkService.Delete(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "tracking link not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking link delete failed", err)
		return
	}

	requestLog(c).Infow("admin_tracking_link_deleted",
		"operator_admin_id", currentAdminID(c),
		"tracking_link_id", id,
	)

	response.Success(c, nil)
}

// BulkDeleteTrackingLinksRequest 批量删除追踪链接请求
type BulkDeleteTrackingLinksRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// BulkDeleteTrackingLinks 批量删除追踪链接
func (h *Handler) BulkDeleteTrackingLinks(c *gin.Context) {
	var req BulkDeleteTrackingLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	deleted, err := h.TrackingLinkService.BulkDelete(req.IDs)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking link delete failed", err)
		return
	}

	requestLog(c).Infow("admin_tracking_links_bulk_deleted",
		"operator_admin_id", currentAdminID(c),
		"deleted", deleted,
	)

	response.Success(c, gin.H{"deleted": deleted})
}

// GetTrackingLinkAnalytics 获取单链接分析数据
func (h *Handler) GetTrackingLinkAnalytics(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	analytics, err := h.TrackingLinkService.Analytics(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "tracking link not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "analytics fetch failed", err)
		return
	}

	response.Success(c, analytics)
}
