package admin

import (
	"errors"
	"strconv"

	"github.com/coinvo/funnel-api/internal/cache"
	"github.com/coinvo/funnel-api/internal/http/response"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSystemUsers 获取系统用户列表
func (h *Handler) GetSystemUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	admins, total, err := h.AdminUserService.List(service.AdminUserListInput{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Role:     c.Query("role"),
	})
	if err != nil {
		if errors.Is(err, service.ErrRoleOutOfScope) {
			respondError(c, response.CodeBadRequest, "unknown role", nil)
			return
		}
		respondError(c, response.CodeInternal, "system user fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, admins, pagination)
}

// CreateSystemUserRequest 创建系统用户请求
type CreateSystemUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// CreateSystemUser 创建系统用户
func (h *Handler) CreateSystemUser(c *gin.Context) {
	var req CreateSystemUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	admin, err := h.AdminUserService.Create(service.AdminUserCreateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		if respondSystemUserError(c, err, "system user create failed") {
			return
		}
		respondError(c, response.CodeInternal, "system user create failed", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(admin.ID, []string{admin.Role}); err != nil {
		respondError(c, response.CodeInternal, "system user create failed", err)
		return
	}
	_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

	requestLog(c).Infow("admin_system_user_created",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", admin.ID,
		"target_username", admin.Username,
		"role", admin.Role,
	)

	response.Success(c, admin)
}

// UpdateSystemUserRequest 更新系统用户请求
type UpdateSystemUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateSystemUser 更新系统用户
func (h *Handler) UpdateSystemUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateSystemUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	admin, err := h.AdminUserService.Update(id, currentAdminID(c), service.AdminUserUpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		if respondSystemUserError(c, err, "system user update failed") {
			return
		}
		respondError(c, response.CodeInternal, "system user update failed", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(admin.ID, []string{admin.Role}); err != nil {
		respondError(c, response.CodeInternal, "system user update failed", err)
		return
	}
	_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

	requestLog(c).Infow("admin_system_user_updated",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", admin.ID,
		"target_username", admin.Username,
		"role", admin.Role,
	)

	response.Success(c, admin)
}

// DeleteSystemUser 删除系统用户
func (h *Handler) DeleteSystemUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	admin, err := h.AdminUserService.Delete(id, currentAdminID(c))
	if err != nil {
		if respondSystemUserError(c, err, "system user delete failed") {
			return
		}
		respondError(c, response.CodeInternal, "system user delete failed", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(id, []string{}); err != nil {
		respondError(c, response.CodeInternal, "system user delete failed", err)
		return
	}
	_ = cache.DelAdminAuthState(c.Request.Context(), id)

	requestLog(c).Infow("admin_system_user_deleted",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", id,
		"target_username", admin.Username,
	)

	response.Success(c, nil)
}

// ToggleSystemUserStatus 切换系统用户启用状态
func (h *Handler) ToggleSystemUserStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	admin, err := h.AdminUserService.ToggleStatus(id, currentAdminID(c))
	if err != nil {
		if respondSystemUserError(c, err, "system user update failed") {
			return
		}
		respondError(c, response.CodeInternal, "system user update failed", err)
		return
	}

	_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

	requestLog(c).Infow("admin_system_user_status_toggled",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", admin.ID,
		"is_active", admin.IsActive,
	)

	response.Success(c, admin)
}

// respondSystemUserError 处理系统用户管理的业务错误，命中时返回 true
func respondSystemUserError(c *gin.Context, err error, internalMsg string) bool {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "system user not found", nil)
	case errors.Is(err, service.ErrRoleOutOfScope):
		respondError(c, response.CodeBadRequest, "unknown role", nil)
	case errors.Is(err, service.ErrUsernameExists):
		respondError(c, response.CodeBadRequest, "username already exists", nil)
	case errors.Is(err, service.ErrEmailExists):
		respondError(c, response.CodeBadRequest, "email already exists", nil)
	case errors.Is(err, service.ErrSelfRoleChange):
		respondError(c, response.CodeBadRequest, "cannot change your own role", nil)
	case errors.Is(err, service.ErrSelfDelete):
		respondError(c, response.CodeBadRequest, "cannot delete your own account", nil)
	case errors.Is(err, service.ErrSelfDeactivate):
		respondError(c, response.CodeBadRequest, "cannot deactivate your own account", nil)
	case errors.Is(err, service.ErrWeakPassword):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	default:
		return false
	}
	return true
}
