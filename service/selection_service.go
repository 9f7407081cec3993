package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"mlops_webapp/dao"
	entity2 "mlops_webapp/entity"

	"gorm.io/gorm"
)

// SelectionMetrics 指标字典：稳定的指标标识 → 结果字段 key。
// 提交时校验，读取时不再做松散的名字映射。
var SelectionMetrics = map[string]string{
	"map50":     "metrics/mAP50(B)",
	"map50_95":  "metrics/mAP50-95(B)",
	"precision": "metrics/precision(B)",
	"recall":    "metrics/recall(B)",
}

// MetricNames 字典序稳定输出，给前端下拉框用。
func MetricNames() []string {
	names := make([]string, 0, len(SelectionMetrics))
	for name := range SelectionMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SelectionService 从最新测试实例的 COMPLETED 任务里按指标选最优。
// 选择是派生结果：持久化的只是指针，可随时重算。
type SelectionService struct {
	instanceService *InstanceService
	selectionDAO    *dao.SelectionDAO
}

func NewSelectionService() *SelectionService {
	return &SelectionService{
		instanceService: NewInstanceService(),
		selectionDAO:    dao.NewSelectionDAO(),
	}
}

// SelectBest 选择算法：
//  1. 定位数据集最新测试实例（没有 → ErrNoInstance）
//  2. 只看 COMPLETED 任务；FAILED/未终态的不参与，不按零分处理
//  3. 结果里缺该指标或为 NaN 的任务同样不参与
//  4. 候选为空 → ErrNoEligibleTask（定义好的负结果，不是异常）
//  5. 取指标最大者，平手取队列位置小的，保证可复现
//  6. 覆盖写该数据集的"当前最优"
func (s *SelectionService) SelectBest(ctx context.Context, datasetID uint, metric string) (*entity2.BestModelSelection, error) {
	logger := serviceLogger().With("service", "SelectionService", "method", "SelectBest")

	fieldKey, ok := SelectionMetrics[metric]
	if !ok {
		return nil, fmt.Errorf("%w: unknown selection metric %q", ErrValidation, metric)
	}

	instance, err := s.instanceService.LatestInstance(ctx, datasetID, entity2.TaskKindTesting)
	if err != nil {
		return nil, err
	}

	best, score, found := pickBest(instance.Tasks, fieldKey)
	if !found {
		return nil, fmt.Errorf("%w: no COMPLETED task in testing instance %d carries metric %q",
			ErrNoEligibleTask, instance.ID, metric)
	}

	trainTaskID := ""
	if best.TrainTaskID != nil {
		trainTaskID = *best.TrainTaskID
	}

	selection := &entity2.BestModelSelection{
		DatasetID:   datasetID,
		TrainTaskID: trainTaskID,
		TestTaskID:  best.ID,
		Metric:      metric,
		Score:       score,
		ModelPath:   best.ModelPath,
		Hyperparams: best.Hyperparams,
	}
	if err := s.selectionDAO.Upsert(ctx, selection); err != nil {
		return nil, err
	}

	logger.Info("best model selected",
		"dataset_id", datasetID, "metric", metric, "score", score,
		"test_task_id", best.ID, "queue_position", best.QueuePosition)
	return selection, nil
}

// GetBestModel 读取当前最优；没有选择过返回 ErrNoBestModel。
func (s *SelectionService) GetBestModel(ctx context.Context, datasetID uint) (*entity2.BestModelSelection, error) {
	selection, err := s.selectionDAO.FindByDatasetID(ctx, datasetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d", ErrNoBestModel, datasetID)
		}
		return nil, err
	}
	return selection, nil
}

// pickBest 纯比较逻辑：IEEE 浮点序，NaN 与缺失一视同仁地排除。
// 平手取队列位置小的（先提交者赢）。
func pickBest(tasks []entity2.Task, fieldKey string) (*entity2.Task, float64, bool) {
	var best *entity2.Task
	var bestScore float64

	for i := range tasks {
		t := &tasks[i]
		if t.Status != entity2.TaskStatusCompleted {
			continue
		}
		score, ok := metricValue(t.Results, fieldKey)
		if !ok {
			continue
		}
		if best == nil ||
			score > bestScore ||
			(score == bestScore && t.QueuePosition < best.QueuePosition) {
			best = t
			bestScore = score
		}
	}

	if best == nil {
		return nil, 0, false
	}
	return best, bestScore, true
}

func metricValue(results json.RawMessage, fieldKey string) (float64, bool) {
	if len(results) == 0 {
		return 0, false
	}
	var parsed map[string]float64
	if err := json.Unmarshal(results, &parsed); err != nil {
		return 0, false
	}
	value, ok := parsed[fieldKey]
	if !ok || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}
