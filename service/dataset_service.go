package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"mlops_webapp/dao"
	entity2 "mlops_webapp/entity"
)

// AugmentTransformers 固定的增强算子字典；提交的算子集合必须是它的非空子集。
var AugmentTransformers = map[string]bool{
	"vertical_flip":   true,
	"horizontal_flip": true,
	"transpose":       true,
	"center_crop":     true,
}

type DatasetService struct {
	datasetDAO *dao.DatasetDAO
	modelDAO   *dao.ModelDAO
	mlClient   *MLClient
}

func NewDatasetService() *DatasetService {
	return &DatasetService{
		datasetDAO: dao.NewDatasetDAO(),
		modelDAO:   dao.NewModelDAO(),
		mlClient:   NewMLClient(),
	}
}

func (s *DatasetService) CreateDataset(ctx context.Context, dataset *entity2.Dataset) error {
	if dataset == nil {
		return dao.ErrNilEntity
	}
	if strings.TrimSpace(dataset.Name) == "" {
		return fmt.Errorf("%w: dataset name is required", ErrValidation)
	}
	if !entity2.IsValidDatasetGroup(dataset.GroupKey) {
		return fmt.Errorf("%w: unknown dataset group %q", ErrValidation, dataset.GroupKey)
	}
	if !dataset.EndDate.IsZero() && dataset.EndDate.Before(dataset.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrValidation)
	}

	dataset.Status = entity2.DatasetStatusRaw
	return s.datasetDAO.Save(ctx, dataset)
}

func (s *DatasetService) GetAllDatasets(ctx context.Context, params entity2.QueryParams) (entity2.PageResult, error) {
	datasets, total, err := s.datasetDAO.FindAll(ctx, params)
	if err != nil {
		return entity2.PageResult{}, err
	}
	return entity2.PageResult{
		Total: total,
		List:  datasets,
	}, nil
}

func (s *DatasetService) GetDataset(ctx context.Context, id uint) (*entity2.Dataset, error) {
	return s.datasetDAO.FindByID(ctx, id)
}

// DatasetActions 当前状态 + 可执行操作，前端按钮可用性的唯一依据。
type DatasetActions struct {
	DatasetID uint                  `json:"dataset_id"`
	Status    entity2.DatasetStatus `json:"status"`
	Actions   []DatasetOperation    `json:"actions"`
}

func (s *DatasetService) GetActions(ctx context.Context, id uint) (*DatasetActions, error) {
	dataset, err := s.datasetDAO.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DatasetActions{
		DatasetID: dataset.ID,
		Status:    dataset.Status,
		Actions:   NextActions(dataset.Status),
	}, nil
}

// AutoAnnotate 用同分组的预训练模型给 RAW 数据集打自动标注。
// 状态只有在 ML 服务确认接收之后才推进（提交即确认模型）。
func (s *DatasetService) AutoAnnotate(ctx context.Context, datasetID, modelID uint, useGPU bool) error {
	logger := serviceLogger().With("service", "DatasetService", "method", "AutoAnnotate")

	dataset, err := s.datasetDAO.FindByID(ctx, datasetID)
	if err != nil {
		return err
	}
	if _, err := CanTransition(dataset.Status, OpAutoAnnotate); err != nil {
		return err
	}

	model, err := s.modelDAO.FindByID(ctx, modelID)
	if err != nil {
		return err
	}
	if !model.IsActive {
		return fmt.Errorf("%w: pretrained model %d is not active", ErrValidation, modelID)
	}
	if model.GroupKey != dataset.GroupKey {
		return fmt.Errorf("%w: model group %q does not match dataset group %q",
			ErrValidation, model.GroupKey, dataset.GroupKey)
	}

	if err := s.mlClient.AutoAnnotate(ctx, datasetID, model.ModelPath, useGPU); err != nil {
		return err
	}
	if err := s.advance(ctx, dataset.ID, OpAutoAnnotate); err != nil {
		return err
	}

	if err := s.modelDAO.TouchLastUsed(ctx, model.ID); err != nil {
		logger.Warn("touch model last_used failed", "model_id", model.ID, "error", err)
	}
	logger.Info("dataset auto-annotated", "dataset_id", datasetID, "model_id", modelID, "use_gpu", useGPU)
	return nil
}

// ValidateAnnotations 接收人工校对后的标注压缩包。包必须能解析出
// 与数据集图像数量一致的非空标注集，否则拒绝且状态不动。
func (s *DatasetService) ValidateAnnotations(ctx context.Context, datasetID uint, fileName string, archive []byte) error {
	logger := serviceLogger().With("service", "DatasetService", "method", "ValidateAnnotations")

	dataset, err := s.datasetDAO.FindByID(ctx, datasetID)
	if err != nil {
		return err
	}
	if _, err := CanTransition(dataset.Status, OpValidate); err != nil {
		return err
	}

	labels, err := parseLabelArchive(archive)
	if err != nil {
		return err
	}
	if dataset.ImageCount > 0 && uint(len(labels)) != dataset.ImageCount {
		return fmt.Errorf("%w: archive has %d labels, dataset has %d images",
			ErrValidation, len(labels), dataset.ImageCount)
	}

	if err := s.mlClient.ReplaceLabels(ctx, datasetID, fileName, archive); err != nil {
		return err
	}
	if err := s.advance(ctx, dataset.ID, OpValidate); err != nil {
		return err
	}

	logger.Info("dataset annotations validated", "dataset_id", datasetID, "labels", len(labels))
	return nil
}

// Augment 对 VALIDATED/AUGMENTED 数据集做离线增强；重复增强是合法的。
func (s *DatasetService) Augment(ctx context.Context, datasetID uint, transformers []string) error {
	logger := serviceLogger().With("service", "DatasetService", "method", "Augment")

	if len(transformers) == 0 {
		return fmt.Errorf("%w: transformer set is empty", ErrValidation)
	}
	seen := make(map[string]bool, len(transformers))
	for _, t := range transformers {
		if !AugmentTransformers[t] {
			return fmt.Errorf("%w: unknown transformer %q", ErrValidation, t)
		}
		if seen[t] {
			return fmt.Errorf("%w: duplicate transformer %q", ErrValidation, t)
		}
		seen[t] = true
	}

	dataset, err := s.datasetDAO.FindByID(ctx, datasetID)
	if err != nil {
		return err
	}
	if _, err := CanTransition(dataset.Status, OpAugment); err != nil {
		return err
	}

	if err := s.mlClient.Augment(ctx, datasetID, transformers); err != nil {
		return err
	}
	if err := s.advance(ctx, dataset.ID, OpAugment); err != nil {
		return err
	}

	logger.Info("dataset augmented", "dataset_id", datasetID, "transformers", transformers)
	return nil
}

// advance 乐观推进数据集状态；0 行生效意味着并发提交抢先改了状态。
// 可重入操作允许"已在目标状态"这一种 0 行情况（MySQL 对同值更新报 0 行）。
func (s *DatasetService) advance(ctx context.Context, datasetID uint, op DatasetOperation) error {
	rule := transitionRule(op)
	rows, err := s.datasetDAO.UpdateStatusIf(ctx, datasetID, rule.From, rule.To)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	if rule.Reentrant {
		current, err := s.datasetDAO.FindByID(ctx, datasetID)
		if err == nil && current.Status == rule.To {
			return nil
		}
	}
	return fmt.Errorf("%w: dataset %d status changed concurrently during %q", ErrInvalidTransition, datasetID, op)
}

// parseLabelArchive 解析标注包，返回去重后的标注文件名集合（不含扩展名）。
func parseLabelArchive(archive []byte) (map[string]bool, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: annotations archive is not a valid zip: %v", ErrValidation, err)
	}

	labels := make(map[string]bool)
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		labels[strings.TrimSuffix(name, ".txt")] = true
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: annotations archive contains no labels", ErrValidation)
	}
	return labels, nil
}
