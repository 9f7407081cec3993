package v1

import (
	entity2 "mlops_webapp/entity"
	"mlops_webapp/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TrainingController struct {
	instanceService *service.InstanceService
	taskService     *service.TaskService
}

func NewTrainingController() *TrainingController {
	return &TrainingController{
		instanceService: service.NewInstanceService(),
		taskService:     service.NewTaskService(),
	}
}

// SubmitTraining handles POST /v1/datasets/:id/trainings
func (c *TrainingController) SubmitTraining(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req service.TrainingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := c.instanceService.SubmitTraining(ctx.Request.Context(), id, req)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, instance)
}

type testingPayload struct {
	UseGPU bool `json:"use_gpu"`
}

// SubmitTesting handles POST /v1/datasets/:id/testings
func (c *TrainingController) SubmitTesting(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload testingPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := c.instanceService.SubmitTesting(ctx.Request.Context(), id, payload.UseGPU)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, instance)
}

// GetLatestInstanceInfo handles GET /v1/datasets/:id/instances/latest
func (c *TrainingController) GetLatestInstanceInfo(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := entity2.TaskKind(ctx.DefaultQuery("kind", string(entity2.TaskKindTraining)))
	if kind != entity2.TaskKindTraining && kind != entity2.TaskKindTesting {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "kind must be training or testing"})
		return
	}

	info, err := c.instanceService.LatestInstanceInfo(ctx.Request.Context(), id, kind)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, info)
}

// GetAggregateStatus handles GET /v1/instances/:id/status
func (c *TrainingController) GetAggregateStatus(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agg, err := c.instanceService.GetAggregateStatus(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, agg)
}

// GetInstanceTasks handles GET /v1/instances/:id/tasks
func (c *TrainingController) GetInstanceTasks(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := c.instanceService.GetInstanceTasks(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

// GetTask handles GET /v1/tasks/:id
func (c *TrainingController) GetTask(ctx *gin.Context) {
	task, err := c.taskService.GetTask(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}
