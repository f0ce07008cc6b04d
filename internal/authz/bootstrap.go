package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "admin",
			Policies: []Policy{
				{Object: "/admin/dashboard", Action: "GET"},
				{Object: "/admin/funnels", Action: "*"},
				{Object: "/admin/funnels/:id", Action: "*"},
				{Object: "/admin/tracking-links", Action: "*"},
				{Object: "/admin/tracking-links/:id", Action: "*"},
				{Object: "/admin/tracking-links/:id/analytics", Action: "GET"},
				{Object: "/admin/tracking-links/:id/toggle", Action: "PATCH"},
				{Object: "/admin/tracking-links/bulk", Action: "DELETE"},
				{Object: "/admin/affiliates", Action: "GET"},
				{Object: "/admin/users", Action: "GET"},
				{Object: "/admin/system-users", Action: "GET"},
				{Object: "/admin/password", Action: "PUT"},
				{Object: "/admin/profile", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "superuser",
			Inherits: []string{"admin"},
			Policies: []Policy{
				{Object: "/admin/system-users", Action: "*"},
				{Object: "/admin/system-users/:id", Action: "*"},
				{Object: "/admin/system-users/:id/toggle-status", Action: "PATCH"},
				{Object: "/admin/system-roles", Action: "GET"},
				{Object: "/admin/system-roles/:role", Action: "DELETE"},
				{Object: "/admin/system-roles/:role/policies", Action: "*"},
			},
			Immutable: true,
		},
	}
}

// IsBuiltinRole 判断角色是否为系统预置角色
func IsBuiltinRole(role string) bool {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, seed := range BuiltinRoleSeeds() {
		seedRole, err := NormalizeRole(seed.Role)
		if err != nil {
			continue
		}
		if seed.Immutable && seedRole == normalized {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
			if err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.saveAndReload()
	}
	return nil
}
