package v1

import (
	"io"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DatasetController struct {
	datasetService *service.DatasetService
}

func NewDatasetController() *DatasetController {
	return &DatasetController{
		datasetService: service.NewDatasetService(),
	}
}

// CreateDataset handles POST /v1/datasets
func (c *DatasetController) CreateDataset(ctx *gin.Context) {
	var dataset entity2.Dataset
	if err := ctx.ShouldBindJSON(&dataset); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.datasetService.CreateDataset(ctx.Request.Context(), &dataset); err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dataset)
}

// GetAllDatasets handles GET /v1/datasets
func (c *DatasetController) GetAllDatasets(ctx *gin.Context) {
	var params entity2.QueryParams
	if err := ctx.ShouldBindQuery(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.datasetService.GetAllDatasets(ctx.Request.Context(), params)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetDataset handles GET /v1/datasets/:id
func (c *DatasetController) GetDataset(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset, err := c.datasetService.GetDataset(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dataset)
}

// GetDatasetActions handles GET /v1/datasets/:id/actions
func (c *DatasetController) GetDatasetActions(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actions, err := c.datasetService.GetActions(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, actions)
}

type autoAnnotatePayload struct {
	ModelID uint `json:"model_id" binding:"required"`
	UseGPU  bool `json:"use_gpu"`
}

// AutoAnnotateDataset handles POST /v1/datasets/:id/auto-annotate
func (c *DatasetController) AutoAnnotateDataset(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload autoAnnotatePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.datasetService.AutoAnnotate(ctx.Request.Context(), id, payload.ModelID, payload.UseGPU); err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "auto annotation submitted",
		"status":  entity2.DatasetStatusAutoAnnotated,
	})
}

// ValidateDatasetAnnotations handles POST /v1/datasets/:id/validate
func (c *DatasetController) ValidateDatasetAnnotations(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := ctx.FormFile("annotations_zip")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "annotations_zip is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	archive, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.datasetService.ValidateAnnotations(ctx.Request.Context(), id, fileHeader.Filename, archive); err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "annotations validated",
		"status":  entity2.DatasetStatusValidated,
	})
}

type augmentPayload struct {
	Transformers []string `json:"transformers" binding:"required"`
}

// AugmentDataset handles POST /v1/datasets/:id/augment
func (c *DatasetController) AugmentDataset(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload augmentPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.datasetService.Augment(ctx.Request.Context(), id, payload.Transformers); err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "augmentation submitted",
		"status":  entity2.DatasetStatusAugmented,
	})
}
