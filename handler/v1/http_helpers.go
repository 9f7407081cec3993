package v1

import (
	"errors"
	"log/slog"
	"mlops_webapp/config"
	"mlops_webapp/dao"
	"mlops_webapp/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func handlerLogger() *slog.Logger {
	logger := config.EnsureLoggerInitialized()
	if logger == nil {
		return slog.Default().With("layer", "handler")
	}
	return logger.With("layer", "handler")
}

// writeHTTPError 错误到状态码的唯一映射点。
// "暂无"类结果带 code 字段，前端据此区分"还没有"和"出错了"。
func writeHTTPError(ctx *gin.Context, err error) {
	logger := handlerLogger().With(
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
	)

	switch {
	case errors.Is(err, dao.ErrInvalidID),
		errors.Is(err, dao.ErrNilEntity),
		errors.Is(err, dao.ErrEmptyBatch),
		errors.Is(err, service.ErrValidation):
		logger.Warn("request failed", "status", http.StatusBadRequest, "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidTaskState),
		errors.Is(err, dao.ErrAlreadyExists):
		logger.Warn("request failed", "status", http.StatusConflict, "error", err)
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoInstance):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "no_instance"})
	case errors.Is(err, service.ErrNoEligibleTask):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "no_eligible_task"})
	case errors.Is(err, service.ErrNoBestModel):
		ctx.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error(), "code": "no_best_model"})
	case errors.Is(err, service.ErrPublishFailed):
		logger.Error("request failed", "status", http.StatusBadGateway, "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrWorkerNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRedisNotInitialized):
		logger.Error("request failed", "status", http.StatusServiceUnavailable, "error", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.Warn("request failed", "status", http.StatusNotFound, "error", err)
		ctx.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		logger.Error("request failed", "status", http.StatusInternalServerError, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseUintPathParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, dao.ErrInvalidID
	}
	return uint(value), nil
}
