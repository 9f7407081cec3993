package service

import (
	"context"
	"fmt"
	"strings"

	"mlops_webapp/dao"
	entity2 "mlops_webapp/entity"
)

type ModelService struct {
	modelDAO *dao.ModelDAO
}

func NewModelService() *ModelService {
	return &ModelService{
		modelDAO: dao.NewModelDAO(),
	}
}

func (s *ModelService) CreateModel(ctx context.Context, model *entity2.PretrainedModel) error {
	if model == nil {
		return dao.ErrNilEntity
	}
	if strings.TrimSpace(model.Name) == "" {
		return fmt.Errorf("%w: model name is required", ErrValidation)
	}
	if !entity2.IsValidDatasetGroup(model.GroupKey) {
		return fmt.Errorf("%w: unknown model group %q", ErrValidation, model.GroupKey)
	}
	if strings.TrimSpace(model.ModelPath) == "" {
		return fmt.Errorf("%w: model path is required", ErrValidation)
	}

	// 新模型默认可用
	model.IsActive = true
	return s.modelDAO.Save(ctx, model)
}

func (s *ModelService) GetAllModels(ctx context.Context, params entity2.QueryParams) (entity2.PageResult, error) {
	models, total, err := s.modelDAO.FindAll(ctx, params)
	if err != nil {
		return entity2.PageResult{}, err
	}
	return entity2.PageResult{
		Total: total,
		List:  models,
	}, nil
}

func (s *ModelService) SetModelActive(ctx context.Context, id uint, active bool) error {
	return s.modelDAO.SetActive(ctx, id, active)
}
