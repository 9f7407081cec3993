package dao

import (
	"context"
	"fmt"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/infrastructure/db"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ModelDAO struct {
	DB *gorm.DB
}

// NewModelDAO 创建 ModelDAO，并注入全局数据库连接。
func NewModelDAO() *ModelDAO {
	return &ModelDAO{
		DB: db.DB,
	}
}

func (d *ModelDAO) Save(ctx context.Context, model *entity2.PretrainedModel) error {
	if model == nil {
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save pretrained model failed: %w", err)
	}
	return dbConn.Create(model).Error
}

func (d *ModelDAO) FindByID(ctx context.Context, id uint) (*entity2.PretrainedModel, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find pretrained model by id failed: %w", err)
	}

	var model entity2.PretrainedModel
	err = dbConn.First(&model, id).Error
	return &model, err
}

func (d *ModelDAO) FindAll(ctx context.Context, params entity2.QueryParams) ([]entity2.PretrainedModel, int64, error) {
	var models []entity2.PretrainedModel
	var total int64

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find pretrained models failed: %w", err)
	}

	dbConn = dbConn.Model(&entity2.PretrainedModel{})

	if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
		dbConn = dbConn.Where("name LIKE ?", "%"+keyword+"%")
	}
	if group := strings.TrimSpace(params.GroupKey); group != "" {
		dbConn = dbConn.Where("group_key = ?", group)
	}
	if params.IsActive != nil {
		dbConn = dbConn.Where("is_active = ?", *params.IsActive)
	}

	if err := dbConn.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count pretrained models failed: %w", err)
	}

	offset, limit := pagination(params)
	err = dbConn.Order("id DESC").Offset(offset).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query pretrained models failed: %w", err)
	}

	return models, total, nil
}

// SetActive 启用/停用预训练模型。
func (d *ModelDAO) SetActive(ctx context.Context, id uint, active bool) error {
	if id == 0 {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("set pretrained model active failed: %w", err)
	}

	result := dbConn.Model(&entity2.PretrainedModel{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("set pretrained model active failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastUsed 自动标注用到模型时刷新 last_used。
func (d *ModelDAO) TouchLastUsed(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("touch pretrained model failed: %w", err)
	}
	return dbConn.Model(&entity2.PretrainedModel{}).
		Where("id = ?", id).
		Update("last_used", time.Now()).Error
}
