package v1

import (
	"mlops_webapp/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SelectionController struct {
	selectionService *service.SelectionService
}

func NewSelectionController() *SelectionController {
	return &SelectionController{
		selectionService: service.NewSelectionService(),
	}
}

type selectBestPayload struct {
	Metric string `json:"metric" binding:"required"`
}

// SelectBestModel handles POST /v1/datasets/:id/best-model
func (c *SelectionController) SelectBestModel(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload selectBestPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selection, err := c.selectionService.SelectBest(ctx.Request.Context(), id, payload.Metric)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, selection)
}

// GetBestModel handles GET /v1/datasets/:id/best-model
func (c *SelectionController) GetBestModel(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selection, err := c.selectionService.GetBestModel(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, selection)
}

// ListSelectionMetrics handles GET /v1/selection-metrics
func (c *SelectionController) ListSelectionMetrics(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"metrics": service.MetricNames()})
}
