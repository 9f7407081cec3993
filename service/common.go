package service

import (
	"errors"
	"log/slog"

	"mlops_webapp/config"
)

// 服务层错误分类。benign 的"暂无"类结果也用哨兵错误表达，
// 由 handler 层映射为可区分的响应，而不是笼统的 500。
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidTaskState  = errors.New("invalid task state")
	ErrNoInstance        = errors.New("no instance for dataset")
	ErrNoEligibleTask    = errors.New("no eligible task")
	ErrNoBestModel       = errors.New("no best model selected for dataset")
	ErrPublishFailed     = errors.New("model publish failed")
)

func serviceLogger() *slog.Logger {
	if config.AppLogger != nil {
		return config.AppLogger.With("layer", "service")
	}
	if config.AppConfig == nil {
		return slog.Default().With("layer", "service")
	}

	logger := config.EnsureLoggerInitialized()
	if logger == nil {
		return slog.Default().With("layer", "service")
	}
	return logger.With("layer", "service")
}
