package admin

import (
	"strings"

	"github.com/coinvo/funnel-api/internal/authz"
	"github.com/coinvo/funnel-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SystemRoleItem 系统角色及其策略
type SystemRoleItem struct {
	Role     string         `json:"role"`
	Builtin  bool           `json:"builtin"`
	Policies []authz.Policy `json:"policies"`
}

// GetSystemRoles 获取系统角色列表（含各自策略）
func (h *Handler) GetSystemRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}

	items := make([]SystemRoleItem, 0, len(roles))
	for _, role := range roles {
		policies, err := h.AuthzService.GetRolePolicies(role)
		if err != nil {
			respondError(c, response.CodeInternal, "role policy fetch failed", err)
			return
		}
		items = append(items, SystemRoleItem{
			Role:     role,
			Builtin:  authz.IsBuiltinRole(role),
			Policies: policies,
		})
	}
	response.Success(c, items)
}

// RolePolicyRequest 角色策略请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// CreateSystemRolePolicy 为角色授予策略
func (h *Handler) CreateSystemRolePolicy(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	if authz.IsBuiltinRole(role) {
		respondError(c, response.CodeBadRequest, "builtin role is immutable", nil)
		return
	}

	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "grant policy failed", err)
		return
	}
	response.Success(c, gin.H{"granted": true})
}

// DeleteSystemRolePolicy 撤销角色策略
func (h *Handler) DeleteSystemRolePolicy(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	if authz.IsBuiltinRole(role) {
		respondError(c, response.CodeBadRequest, "builtin role is immutable", nil)
		return
	}

	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "revoke policy failed", err)
		return
	}
	response.Success(c, gin.H{"revoked": true})
}

// DeleteSystemRole 删除自定义角色及其策略与成员关系
func (h *Handler) DeleteSystemRole(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	if authz.IsBuiltinRole(role) {
		respondError(c, response.CodeBadRequest, "builtin role is immutable", nil)
		return
	}

	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "role delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
