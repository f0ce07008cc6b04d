package service

import "errors"

// 服务层统一哨兵错误
var (
	ErrNotFound              = errors.New("record not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrWeakPassword          = errors.New("weak password")
	ErrAccountDisabled       = errors.New("account disabled")
	ErrLinkInactive          = errors.New("tracking link inactive")
	ErrLinkExpired           = errors.New("tracking link expired")
	ErrSlugExists            = errors.New("slug already exists")
	ErrShortCodeExists       = errors.New("short code already exists")
	ErrEmailExists           = errors.New("email already exists")
	ErrUsernameExists        = errors.New("username already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrDashboardRangeInvalid = errors.New("invalid dashboard date range")
	ErrSelfRoleChange        = errors.New("cannot change own role")
	ErrSelfDelete            = errors.New("cannot delete own account")
	ErrSelfDeactivate        = errors.New("cannot deactivate own account")
	ErrRoleOutOfScope        = errors.New("role out of manageable scope")
)
