package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/coinvo/funnel-api/internal/constants"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
)

// protectedAdminUsername 内置账号不可删除
const protectedAdminUsername = "admin"

// AdminUserListInput 查询系统用户入参
type AdminUserListInput struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

// AdminUserCreateInput 创建系统用户入参
type AdminUserCreateInput struct {
	Username string
	Email    string
	Password string
	Role     string
	IsActive *bool
}

// AdminUserUpdateInput 更新系统用户入参（空指针表示不修改）
type AdminUserUpdateInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *string
	IsActive *bool
}

// AdminUserService 系统用户管理服务
type AdminUserService struct {
	auth      *AuthService
	adminRepo repository.AdminRepository
}

// NewAdminUserService 创建系统用户管理服务
func NewAdminUserService(auth *AuthService, adminRepo repository.AdminRepository) *AdminUserService {
	return &AdminUserService{auth: auth, adminRepo: adminRepo}
}

// managedAdminRoles 系统用户管理页可见与可操作的角色
var managedAdminRoles = []string{constants.AdminRoleAdmin, constants.AdminRoleSuperuser}

func isManagedAdminRole(role string) bool {
	for _, managed := range managedAdminRoles {
		if role == managed {
			return true
		}
	}
	return false
}

// List 查询系统用户，仅展示 admin/superuser 角色
func (s *AdminUserService) List(input AdminUserListInput) ([]models.Admin, int64, error) {
	role := strings.TrimSpace(input.Role)
	if role != "" && !isManagedAdminRole(role) {
		return nil, 0, ErrRoleOutOfScope
	}
	return s.adminRepo.List(repository.AdminListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Search:   input.Search,
		Role:     role,
		Roles:    managedAdminRoles,
	})
}

// Get 获取系统用户
func (s *AdminUserService) Get(id uint) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	return admin, nil
}

// Create 创建系统用户
func (s *AdminUserService) Create(input AdminUserCreateInput) (*models.Admin, error) {
	username, err := normalizeAdminUsername(input.Username)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email invalid", ErrInvalidInput)
	}
	role := strings.TrimSpace(input.Role)
	if !isManagedAdminRole(role) {
		return nil, ErrRoleOutOfScope
	}

	existing, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}
	existing, err = s.adminRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	if err := s.auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	admin := &models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     isActive,
	}
	if err := s.adminRepo.Create(admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Update 更新系统用户，actorID 用于自我操作保护
func (s *AdminUserService) Update(id uint, actorID uint, input AdminUserUpdateInput) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	if !isManagedAdminRole(admin.Role) {
		return nil, ErrRoleOutOfScope
	}

	if input.Username != nil {
		username, err := normalizeAdminUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		if username != admin.Username {
			existing, err := s.adminRepo.GetByUsername(username)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != admin.ID {
				return nil, ErrUsernameExists
			}
			admin.Username = username
		}
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: email invalid", ErrInvalidInput)
		}
		if email != admin.Email {
			existing, err := s.adminRepo.GetByEmail(email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != admin.ID {
				return nil, ErrEmailExists
			}
			admin.Email = email
		}
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if !isManagedAdminRole(role) {
			return nil, ErrRoleOutOfScope
		}
		if role != admin.Role {
			if admin.ID == actorID {
				return nil, ErrSelfRoleChange
			}
			admin.Role = role
		}
	}
	if input.Password != nil {
		if err := s.auth.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := s.auth.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		admin.PasswordHash = hash
		now := time.Now()
		admin.TokenVersion++
		admin.TokenInvalidBefore = &now
	}
	if input.IsActive != nil {
		if !*input.IsActive && admin.ID == actorID {
			return nil, ErrSelfDeactivate
		}
		admin.IsActive = *input.IsActive
	}

	if err := s.adminRepo.Update(admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Delete 删除系统用户，actorID 用于自我操作保护
func (s *AdminUserService) Delete(id uint, actorID uint) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	if admin.ID == actorID {
		return nil, ErrSelfDelete
	}
	if !isManagedAdminRole(admin.Role) {
		return nil, ErrRoleOutOfScope
	}
	if admin.Username == protectedAdminUsername {
		return nil, fmt.Errorf("%w: builtin admin cannot be deleted", ErrInvalidInput)
	}
	count, err := s.adminRepo.Count()
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, fmt.Errorf("%w: cannot delete the last admin", ErrInvalidInput)
	}
	if err := s.adminRepo.Delete(id); err != nil {
		return nil, err
	}
	return admin, nil
}

// ToggleStatus 切换系统用户启用状态，actorID 用于自我操作保护
func (s *AdminUserService) ToggleStatus(id uint, actorID uint) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	if !isManagedAdminRole(admin.Role) {
		return nil, ErrRoleOutOfScope
	}
	if admin.ID == actorID {
		return nil, ErrSelfDeactivate
	}

	admin.IsActive = !admin.IsActive
	if !admin.IsActive {
		// 停用后立即失效存量 Token
		now := time.Now()
		admin.TokenVersion++
		admin.TokenInvalidBefore = &now
	}
	if err := s.adminRepo.Update(admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// normalizeAdminUsername 规范化账号：3-64 个字符且不含空白
func normalizeAdminUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	runes := []rune(username)
	if len(runes) < 3 || len(runes) > 64 {
		return "", fmt.Errorf("%w: username must be 3-64 characters", ErrInvalidInput)
	}
	for _, r := range runes {
		if unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: username cannot contain whitespace", ErrInvalidInput)
		}
	}
	return username, nil
}
