package dao

import (
	"context"
	"fmt"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/infrastructure/db"

	"gorm.io/gorm"
)

type InstanceDAO struct {
	DB *gorm.DB
}

func NewInstanceDAO() *InstanceDAO {
	return &InstanceDAO{
		DB: db.DB,
	}
}

// SaveWithTasks 一次提交 = 一个实例 + 一批任务，事务内原子落库。
func (d *InstanceDAO) SaveWithTasks(ctx context.Context, instance *entity2.Instance, tasks []entity2.Task) error {
	logger := daoLogger().With("dao", "InstanceDAO", "method", "SaveWithTasks")
	if instance == nil {
		return ErrNilEntity
	}
	if len(tasks) == 0 {
		return ErrEmptyBatch
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save instance failed: %w", err)
	}

	err = dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(instance).Error; err != nil {
			return err
		}
		for i := range tasks {
			tasks[i].InstanceID = instance.ID
		}
		return tx.Create(&tasks).Error
	})
	if err != nil {
		logger.Error("save instance failed", "dataset_id", instance.DatasetID, "error", err)
		return fmt.Errorf("save instance failed: %w", err)
	}
	logger.Info("instance saved", "id", instance.ID, "dataset_id", instance.DatasetID, "kind", instance.Kind, "tasks", len(tasks))
	return nil
}

func (d *InstanceDAO) FindByID(ctx context.Context, id uint) (*entity2.Instance, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find instance by id failed: %w", err)
	}

	var instance entity2.Instance
	err = dbConn.First(&instance, id).Error
	return &instance, err
}

// FindLatest 最新实例是纯派生查询：created_at 最大者，平手取 id 最大。
// 没有命中返回 gorm.ErrRecordNotFound，由上层转成正常的"暂无实例"结果。
func (d *InstanceDAO) FindLatest(ctx context.Context, datasetID uint, kind entity2.TaskKind) (*entity2.Instance, error) {
	if datasetID == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find latest instance failed: %w", err)
	}

	var instance entity2.Instance
	err = dbConn.
		Where("dataset_id = ? AND kind = ?", datasetID, kind).
		Order("created_at DESC, id DESC").
		First(&instance).Error
	return &instance, err
}

func (d *InstanceDAO) FindAll(ctx context.Context, params entity2.QueryParams) ([]entity2.Instance, int64, error) {
	var instances []entity2.Instance
	var total int64

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find instances failed: %w", err)
	}

	dbConn = dbConn.Model(&entity2.Instance{})
	if params.DatasetID != nil {
		dbConn = dbConn.Where("dataset_id = ?", *params.DatasetID)
	}
	if params.Kind != nil {
		dbConn = dbConn.Where("kind = ?", *params.Kind)
	}

	if err := dbConn.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count instances failed: %w", err)
	}

	offset, limit := pagination(params)
	err = dbConn.Order("id DESC").Offset(offset).Limit(limit).Find(&instances).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query instances failed: %w", err)
	}

	return instances, total, nil
}
