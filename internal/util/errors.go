package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrPermissionDenied   = errors.New("permission denied")

	// ErrInvalidEvent 事件校验失败，发生在任何写入之前
	ErrInvalidEvent = errors.New("invalid completion event")
)
