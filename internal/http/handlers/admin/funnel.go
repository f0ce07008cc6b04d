package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/coinvo/funnel-api/internal/http/response"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetFunnels 获取漏斗列表
func (h *Handler) GetFunnels(c *gin.Context) {
	withLinks := true
	if raw := strings.TrimSpace(c.Query("with_links")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		withLinks = parsed
	}

	funnels, err := h.FunnelService.List(withLinks)
	if err != nil {
		respondError(c, response.CodeInternal, "funnel fetch failed", err)
		return
	}

	response.Success(c, funnels)
}

// GetFunnel 获取漏斗详情
func (h *Handler) GetFunnel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	funnel, err := h.FunnelService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "funnel not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "funnel fetch failed", err)
		return
	}

	response.Success(c, funnel)
}

// CreateFunnelRequest 创建漏斗请求
type CreateFunnelRequest struct {
	Name           string  `json:"name" binding:"required"`
	Slug           string  `json:"slug"`
	Heading        string  `json:"heading" binding:"required"`
	SubHeading     string  `json:"sub_heading"`
	ImageURL       string  `json:"image_url"`
	AffiliateURL   string  `json:"affiliate_url" binding:"required"`
	BaseURL        string  `json:"base_url"`
	Platform       string  `json:"platform" binding:"required"`
	EarningsAmount float64 `json:"earnings_amount"`
	IsActive       *bool   `json:"is_active"`
}

// CreateFunnel 创建漏斗
func (h *Handler) CreateFunnel(c *gin.Context) {
	var req CreateFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	funnel, err := h.FunnelService.Create(service.FunnelCreateInput{
		Name:           req.Name,
		Slug:           req.Slug,
		Heading:        req.Heading,
		SubHeading:     req.SubHeading,
		ImageURL:       req.ImageURL,
		AffiliateURL:   req.AffiliateURL,
		BaseURL:        req.BaseURL,
		Platform:       req.Platform,
		EarningsAmount: req.EarningsAmount,
		IsActive:       req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			respondError(c, response.CodeBadRequest, "slug already exists", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "funnel create failed", err)
		return
	}

	response.Success(c, funnel)
}

// UpdateFunnelRequest 更新漏斗请求
type UpdateFunnelRequest struct {
	Name           *string  `json:"name"`
	Slug           *string  `json:"slug"`
	Heading        *string  `json:"heading"`
	SubHeading     *string  `json:"sub_heading"`
	ImageURL       *string  `json:"image_url"`
	AffiliateURL   *string  `json:"affiliate_url"`
	BaseURL        *string  `json:"base_url"`
	Platform       *string  `json:"platform"`
	EarningsAmount *float64 `json:"earnings_amount"`
	IsActive       *bool    `json:"is_active"`
}

// UpdateFunnel 更新漏斗
func (h *Handler) UpdateFunnel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	funnel, err := h.FunnelService.Update(id, service.FunnelUpdateInput{
		Name:           req.Name,
		Slug:           req.Slug,
		Heading:        req.Heading,
		SubHeading:     req.SubHeading,
		ImageURL:       req.ImageURL,
		AffiliateURL:   req.AffiliateURL,
		BaseURL:        req.BaseURL,
		Platform:       req.Platform,
		EarningsAmount: req.EarningsAmount,
		IsActive:       req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "funnel not found", nil)
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
		respondError(c, response.CodeInternal, "funnel update failed", err)
		return
	}

	response.Success(c, funnel)
}

// DeleteFunnel 删除漏斗（级联清理链接与点击数据）
func (h *Handler) DeleteFunnel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.FunnelService.Delete(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "funnel not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "funnel delete failed", err)
		return
	}

	requestLog(c).Infow("admin_funnel_deleted",
		"operator_admin_id", currentAdminID(c),
		"funnel_id", id,
	)

	response.Success(c, nil)
}
