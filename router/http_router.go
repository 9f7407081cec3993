package router

import (
	v2 "mlops_webapp/handler/v1"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	datasetController := v2.NewDatasetController()
	trainingController := v2.NewTrainingController()
	callbackController := v2.NewTaskCallbackController()
	selectionController := v2.NewSelectionController()
	deploymentController := v2.NewDeploymentController()
	modelController := v2.NewModelController()
	workerController := v2.NewWorkerController()

	r := gin.Default()
	r.Use(gin.Recovery())

	v1Group := r.Group("/v1")
	{
		// Dashboard routes：登录主体，user/admin 角色闸门
		authed := v1Group.Group("")
		authed.Use(v2.AuthRequired())
		{
			datasets := authed.Group("/datasets")
			{
				datasets.POST("", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), datasetController.CreateDataset)
				datasets.GET("", datasetController.GetAllDatasets)
				datasets.GET("/:id", datasetController.GetDataset)
				datasets.GET("/:id/actions", datasetController.GetDatasetActions)
				datasets.POST("/:id/auto-annotate", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), datasetController.AutoAnnotateDataset)
				datasets.POST("/:id/validate", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), datasetController.ValidateDatasetAnnotations)
				datasets.POST("/:id/augment", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), datasetController.AugmentDataset)

				datasets.POST("/:id/trainings", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), trainingController.SubmitTraining)
				datasets.POST("/:id/testings", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), trainingController.SubmitTesting)
				datasets.GET("/:id/instances/latest", trainingController.GetLatestInstanceInfo)

				datasets.POST("/:id/best-model", v2.RequireRole(v2.RoleUser, v2.RoleAdmin), selectionController.SelectBestModel)
				datasets.GET("/:id/best-model", selectionController.GetBestModel)

				datasets.POST("/:id/deploy", v2.RequireRole(v2.RoleAdmin), deploymentController.DeployModel)
			}

			instances := authed.Group("/instances")
			{
				instances.GET("/:id/status", trainingController.GetAggregateStatus)
				instances.GET("/:id/tasks", trainingController.GetInstanceTasks)
			}

			authed.GET("/tasks/:id", trainingController.GetTask)
			authed.GET("/selection-metrics", selectionController.ListSelectionMetrics)
			authed.GET("/deployments", deploymentController.ListDeployments)

			// Pretrained model routes
			models := authed.Group("/models")
			{
				models.POST("", v2.RequireRole(v2.RoleAdmin), modelController.CreateModel)
				models.GET("", modelController.GetAllModels)
				models.PUT("/:id/activate", v2.RequireRole(v2.RoleAdmin), modelController.ActivateModel)
				models.PUT("/:id/deactivate", v2.RequireRole(v2.RoleAdmin), modelController.DeactivateModel)
			}

			// Worker registry routes (运维)
			workers := authed.Group("/workers")
			workers.Use(v2.RequireRole(v2.RoleAdmin))
			{
				workers.GET("", workerController.ListWorkers)
				workers.GET("/:key", workerController.GetWorker)
				workers.PUT("/:key", workerController.RegisterWorker)
				workers.DELETE("/:key", workerController.RemoveWorker)
			}
		}

		// Worker callback routes：外部 ML worker 用共享令牌回写任务状态
		callbacks := v1Group.Group("/tasks")
		callbacks.Use(v2.WorkerAuth())
		{
			callbacks.PUT("/:id/start", callbackController.StartTask)
			callbacks.PUT("/:id/progress", callbackController.ReportTaskProgress)
			callbacks.PUT("/:id/complete", callbackController.CompleteTask)
			callbacks.PUT("/:id/fail", callbackController.FailTask)
		}
	}

	return r
}
