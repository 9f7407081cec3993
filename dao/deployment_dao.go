package dao

import (
	"context"
	"fmt"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/infrastructure/db"

	"gorm.io/gorm"
)

type DeploymentDAO struct {
	DB *gorm.DB
}

func NewDeploymentDAO() *DeploymentDAO {
	return &DeploymentDAO{
		DB: db.DB,
	}
}

// Append 部署历史只追加，没有更新入口。
func (d *DeploymentDAO) Append(ctx context.Context, record *entity2.DeploymentRecord) error {
	logger := daoLogger().With("dao", "DeploymentDAO", "method", "Append")
	if record == nil {
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("append deployment record failed: %w", err)
	}
	if err := dbConn.Create(record).Error; err != nil {
		logger.Error("append deployment record failed", "dataset_id", record.DatasetID, "error", err)
		return fmt.Errorf("append deployment record failed: %w", err)
	}
	logger.Info("deployment record appended", "id", record.ID, "dataset_id", record.DatasetID)
	return nil
}

func (d *DeploymentDAO) FindAll(ctx context.Context, params entity2.QueryParams) ([]entity2.DeploymentRecord, int64, error) {
	var records []entity2.DeploymentRecord
	var total int64

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find deployment records failed: %w", err)
	}

	dbConn = dbConn.Model(&entity2.DeploymentRecord{})
	if params.DatasetID != nil {
		dbConn = dbConn.Where("dataset_id = ?", *params.DatasetID)
	}

	if err := dbConn.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count deployment records failed: %w", err)
	}

	offset, limit := pagination(params)
	err = dbConn.Order("id DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query deployment records failed: %w", err)
	}

	return records, total, nil
}
