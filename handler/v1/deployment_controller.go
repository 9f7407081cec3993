package v1

import (
	entity2 "mlops_webapp/entity"
	"mlops_webapp/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DeploymentController struct {
	deploymentService *service.DeploymentService
}

func NewDeploymentController() *DeploymentController {
	return &DeploymentController{
		deploymentService: service.NewDeploymentService(),
	}
}

// DeployModel handles POST /v1/datasets/:id/deploy
func (c *DeploymentController) DeployModel(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := c.deploymentService.Deploy(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, record)
}

// ListDeployments handles GET /v1/deployments
func (c *DeploymentController) ListDeployments(ctx *gin.Context) {
	var params entity2.QueryParams
	if err := ctx.ShouldBindQuery(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.deploymentService.ListDeployments(ctx.Request.Context(), params)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}
