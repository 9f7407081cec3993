package service

import (
	"context"
	"errors"
	"fmt"

	"mlops_webapp/dao"
	entity2 "mlops_webapp/entity"

	"gorm.io/gorm"
)

const deploymentStatusDeployed = "DEPLOYED"

// ArtifactPublisher 把模型产物发布到外部存储，返回远端路径。
type ArtifactPublisher interface {
	Publish(localPath string) (string, error)
}

type selectionReader interface {
	FindByDatasetID(ctx context.Context, datasetID uint) (*entity2.BestModelSelection, error)
}

type deploymentLedger interface {
	Append(ctx context.Context, record *entity2.DeploymentRecord) error
	FindAll(ctx context.Context, params entity2.QueryParams) ([]entity2.DeploymentRecord, int64, error)
}

type datasetReader interface {
	FindByID(ctx context.Context, id uint) (*entity2.Dataset, error)
}

// DeploymentService 部署记录器：前置条件是存在"当前最优"，
// 发布确认成功才追加流水，不存在半成品记录。
type DeploymentService struct {
	selectionDAO  selectionReader
	deploymentDAO deploymentLedger
	datasetDAO    datasetReader
	publisher     ArtifactPublisher
}

func NewDeploymentService() *DeploymentService {
	return &DeploymentService{
		selectionDAO:  dao.NewSelectionDAO(),
		deploymentDAO: dao.NewDeploymentDAO(),
		datasetDAO:    dao.NewDatasetDAO(),
		publisher:     NewSFTPArtifactPublisher(),
	}
}

func (s *DeploymentService) Deploy(ctx context.Context, datasetID uint) (*entity2.DeploymentRecord, error) {
	logger := serviceLogger().With("service", "DeploymentService", "method", "Deploy")

	selection, err := s.selectionDAO.FindByDatasetID(ctx, datasetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d, select a best model first", ErrNoBestModel, datasetID)
		}
		return nil, err
	}

	dataset, err := s.datasetDAO.FindByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	remotePath, err := s.publisher.Publish(selection.ModelPath)
	if err != nil {
		logger.Error("publish model artifact failed", "dataset_id", datasetID, "model_path", selection.ModelPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	record := &entity2.DeploymentRecord{
		DatasetID:    dataset.ID,
		DatasetName:  dataset.Name,
		DatasetGroup: dataset.GroupKey,
		ModelPath:    remotePath,
		Metric:       selection.Metric,
		Score:        selection.Score,
		Status:       deploymentStatusDeployed,
	}
	if err := s.deploymentDAO.Append(ctx, record); err != nil {
		return nil, err
	}

	logger.Info("model deployed", "dataset_id", datasetID, "remote_path", remotePath, "score", selection.Score)
	return record, nil
}

func (s *DeploymentService) ListDeployments(ctx context.Context, params entity2.QueryParams) (entity2.PageResult, error) {
	records, total, err := s.deploymentDAO.FindAll(ctx, params)
	if err != nil {
		return entity2.PageResult{}, err
	}
	return entity2.PageResult{
		Total: total,
		List:  records,
	}, nil
}
