package v1

import (
	"errors"
	"mlops_webapp/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WorkerController 运维侧的 ML worker 登记面。
type WorkerController struct{}

func NewWorkerController() *WorkerController {
	return &WorkerController{}
}

// ListWorkers handles GET /v1/workers
func (c *WorkerController) ListWorkers(ctx *gin.Context) {
	workers, err := service.ListWorkers(ctx.Request.Context())
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"workers": workers})
}

// GetWorker handles GET /v1/workers/:key
func (c *WorkerController) GetWorker(ctx *gin.Context) {
	worker, err := service.GetWorkerByKey(ctx.Request.Context(), ctx.Param("key"))
	if err != nil {
		if errors.Is(err, service.ErrWorkerKeyRequired) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, worker)
}

// RegisterWorker handles PUT /v1/workers/:key
func (c *WorkerController) RegisterWorker(ctx *gin.Context) {
	var worker service.MLWorker
	if err := ctx.ShouldBindJSON(&worker); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	worker.Key = ctx.Param("key")

	if err := service.RegisterWorker(ctx.Request.Context(), worker); err != nil {
		if errors.Is(err, service.ErrWorkerKeyRequired) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, worker)
}

// RemoveWorker handles DELETE /v1/workers/:key
func (c *WorkerController) RemoveWorker(ctx *gin.Context) {
	if err := service.RemoveWorker(ctx.Request.Context(), ctx.Param("key")); err != nil {
		if errors.Is(err, service.ErrWorkerKeyRequired) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "worker removed"})
}
