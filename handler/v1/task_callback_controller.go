package v1

import (
	entity2 "mlops_webapp/entity"
	"mlops_webapp/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TaskCallbackController 外部 ML worker 的回调面。任务状态只从这里写入，
// 面板侧所有读操作都是幂等轮询。
type TaskCallbackController struct {
	taskService *service.TaskService
}

func NewTaskCallbackController() *TaskCallbackController {
	return &TaskCallbackController{
		taskService: service.NewTaskService(),
	}
}

// StartTask handles PUT /v1/tasks/:id/start
func (c *TaskCallbackController) StartTask(ctx *gin.Context) {
	if err := c.taskService.MarkInProgress(ctx.Request.Context(), ctx.Param("id")); err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "task started"})
}

type progressPayload struct {
	Epoch   int                `json:"epoch"`
	Metrics map[string]float64 `json:"metrics" binding:"required"`
}

// ReportTaskProgress handles PUT /v1/tasks/:id/progress
func (c *TaskCallbackController) ReportTaskProgress(ctx *gin.Context) {
	var payload progressPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := c.taskService.ReportProgress(ctx.Request.Context(), ctx.Param("id"), entity2.MetricsPoint{
		Epoch:   payload.Epoch,
		Metrics: payload.Metrics,
	})
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "progress recorded"})
}

type completePayload struct {
	Results   map[string]float64 `json:"results" binding:"required"`
	ModelPath string             `json:"model_path"`
}

// CompleteTask handles PUT /v1/tasks/:id/complete
func (c *TaskCallbackController) CompleteTask(ctx *gin.Context) {
	var payload completePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := c.taskService.MarkCompleted(ctx.Request.Context(), ctx.Param("id"), payload.Results, payload.ModelPath)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "task completed"})
}

type failPayload struct {
	Error string `json:"error" binding:"required"`
}

// FailTask handles PUT /v1/tasks/:id/fail
func (c *TaskCallbackController) FailTask(ctx *gin.Context) {
	var payload failPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := c.taskService.MarkFailed(ctx.Request.Context(), ctx.Param("id"), payload.Error)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "task failed"})
}
