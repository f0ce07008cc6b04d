package models

import (
	"strings"

	"github.com/coinvo/funnel-api/internal/constants"
	"github.com/coinvo/funnel-api/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(username, password string) error {
	var count int64
	DB.Model(&Admin{}).Count(&count)

	// 如果已有管理员，确保默认 admin 拥有超级管理员权限
	if count > 0 {
		if err := DB.Model(&Admin{}).Where("username = ?", "admin").
			Updates(map[string]interface{}{"is_super": true, "role": constants.AdminRoleSuperuser}).Error; err != nil {
			logger.Warnw("ensure_default_admin_super_failed", "error", err)
		}
		return nil
	}

	// 创建默认管理员
	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	isDefault := strings.EqualFold(strings.TrimSpace(username), "admin")
	admin := Admin{
		Username:     username,
		Email:        username + "@localhost",
		PasswordHash: string(hash),
		Role:         constants.AdminRoleSuperuser,
		IsActive:     true,
		IsSuper:      isDefault,
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "username", username, "password", password)
		logger.Warnw("default_admin_password_change_required", "username", username)
	} else {
		logger.Warnw("default_admin_created", "username", username, "password_hidden", true)
	}

	return nil
}
