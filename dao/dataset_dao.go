package dao

import (
	"context"
	"fmt"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/infrastructure/db"
	"strings"

	"gorm.io/gorm"
)

type DatasetDAO struct {
	DB *gorm.DB
}

func NewDatasetDAO() *DatasetDAO {
	return &DatasetDAO{
		DB: db.DB,
	}
}

func (d *DatasetDAO) Save(ctx context.Context, dataset *entity2.Dataset) error {
	if dataset == nil {
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save dataset failed: %w", err)
	}
	return dbConn.Create(dataset).Error
}

func (d *DatasetDAO) FindByID(ctx context.Context, id uint) (*entity2.Dataset, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find dataset by id failed: %w", err)
	}

	var dataset entity2.Dataset
	err = dbConn.First(&dataset, id).Error
	return &dataset, err
}

func (d *DatasetDAO) FindAll(ctx context.Context, params entity2.QueryParams) ([]entity2.Dataset, int64, error) {
	var datasets []entity2.Dataset
	var total int64

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find datasets failed: %w", err)
	}

	dbConn = dbConn.Model(&entity2.Dataset{})

	// 1. 基础模糊搜索
	if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
		dbConn = dbConn.Where("name LIKE ?", "%"+keyword+"%")
	}

	// 2. 指标组合过滤
	if name := strings.TrimSpace(params.Name); name != "" {
		dbConn = dbConn.Where("name = ?", name)
	}
	if group := strings.TrimSpace(params.GroupKey); group != "" {
		dbConn = dbConn.Where("group_key = ?", group)
	}
	if params.Status != nil {
		dbConn = dbConn.Where("status = ?", *params.Status)
	}

	// 3. 获取总数
	err = dbConn.Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count datasets failed: %w", err)
	}

	// 4. 执行分页查询 (默认 ID 降序)
	offset, limit := pagination(params)
	err = dbConn.Order("id DESC").Offset(offset).Limit(limit).Find(&datasets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query datasets failed: %w", err)
	}

	return datasets, total, err
}

// UpdateStatusIf 带乐观检查的状态推进：仅当当前状态在 from 中时更新。
// 返回实际生效的行数，0 行表示状态已被并发修改或本来就不满足前置状态。
func (d *DatasetDAO) UpdateStatusIf(ctx context.Context, id uint, from []entity2.DatasetStatus, to entity2.DatasetStatus) (int64, error) {
	logger := daoLogger().With("dao", "DatasetDAO", "method", "UpdateStatusIf")
	if id == 0 {
		return 0, ErrInvalidID
	}
	if len(from) == 0 {
		return 0, fmt.Errorf("update dataset status failed: empty precondition set")
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return 0, fmt.Errorf("update dataset status failed: %w", err)
	}

	result := dbConn.Model(&entity2.Dataset{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		logger.Error("update dataset status failed", "id", id, "to", to, "error", result.Error)
		return 0, fmt.Errorf("update dataset status failed: %w", result.Error)
	}
	logger.Info("dataset status update", "id", id, "to", to, "rows", result.RowsAffected)
	return result.RowsAffected, nil
}
