package admin

import (
	"strconv"
	"strings"

	"github.com/coinvo/funnel-api/internal/http/response"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAffiliates 获取本站邀请码下的推广用户列表
func (h *Handler) GetAffiliates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var hasDeposit *bool
	if raw := strings.TrimSpace(c.Query("has_deposit")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		hasDeposit = &parsed
	}

	users, total, stats, err := h.AffiliateUserService.ListAffiliates(service.AffiliateListInput{
		Page:       page,
		PageSize:   pageSize,
		Platform:   c.Query("platform"),
		Search:     c.Query("search"),
		HasDeposit: hasDeposit,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "affiliate fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, gin.H{
		"users":       users,
		"stats":       stats,
		"invite_code": h.AffiliateUserService.InviteCode(),
	}, pagination)
}

// GetAffiliateUsers 获取推广用户列表，缺省只看本站邀请码
func (h *Handler) GetAffiliateUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var ourUsersOnly *bool
	if raw := strings.TrimSpace(c.Query("our_users_only")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		ourUsersOnly = &parsed
	}

	users, total, stats, err := h.AffiliateUserService.ListUsers(service.AffiliateUserListInput{
		Page:         page,
		PageSize:     pageSize,
		Platform:     c.Query("platform"),
		InviteCode:   c.Query("invite_code"),
		Search:       c.Query("search"),
		OurUsersOnly: ourUsersOnly,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "affiliate user fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, gin.H{
		"users": users,
		"stats": stats,
	}, pagination)
}
