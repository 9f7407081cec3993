package dao

import (
	"context"
	"fmt"
	entity2 "mlops_webapp/entity"
	"mlops_webapp/infrastructure/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SelectionDAO struct {
	DB *gorm.DB
}

func NewSelectionDAO() *SelectionDAO {
	return &SelectionDAO{
		DB: db.DB,
	}
}

// Upsert 每个数据集只保留一条"当前最优"，后来的选择覆盖之前的。
func (d *SelectionDAO) Upsert(ctx context.Context, selection *entity2.BestModelSelection) error {
	logger := daoLogger().With("dao", "SelectionDAO", "method", "Upsert")
	if selection == nil {
		return ErrNilEntity
	}
	if selection.DatasetID == 0 {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("upsert best model selection failed: %w", err)
	}

	err = dbConn.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dataset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"train_task_id", "test_task_id", "metric", "score", "model_path", "hyperparams", "selected_at",
		}),
	}).Create(selection).Error
	if err != nil {
		logger.Error("upsert best model selection failed", "dataset_id", selection.DatasetID, "error", err)
		return fmt.Errorf("upsert best model selection failed: %w", err)
	}
	logger.Info("best model selection upserted", "dataset_id", selection.DatasetID, "metric", selection.Metric, "score", selection.Score)
	return nil
}

func (d *SelectionDAO) FindByDatasetID(ctx context.Context, datasetID uint) (*entity2.BestModelSelection, error) {
	if datasetID == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find best model selection failed: %w", err)
	}

	var selection entity2.BestModelSelection
	err = dbConn.Where("dataset_id = ?", datasetID).First(&selection).Error
	return &selection, err
}
