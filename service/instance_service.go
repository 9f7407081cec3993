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

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const splitRatioTolerance = 0.001

// defaultSplitRatios 训练集/验证集/测试集默认划分
var defaultSplitRatios = map[string]float64{
	"train": 0.7,
	"val":   0.2,
	"test":  0.1,
}

// TrainingRequest 一次训练提交：N 组超参 = N 个任务 = 1 个实例。
type TrainingRequest struct {
	ParamsList  []map[string]float64 `json:"params_list"`
	SplitRatios map[string]float64   `json:"split_ratios"`
	UseGPU      bool                 `json:"use_gpu"`
}

// InstanceInfo 不带实例 id 的"最新实例"查询结果。
type InstanceInfo struct {
	InstanceID   uint             `json:"instance_id"`
	DatasetID    uint             `json:"dataset_id"`
	DatasetName  string           `json:"dataset_name"`
	DatasetGroup string           `json:"dataset_group"`
	Kind         entity2.TaskKind `json:"kind"`
}

// InstanceService 把一次提交的任务绑定为实例，并实时推导聚合视图。
// 聚合永远现算：宁可每次读 O(n)，也不维护会漂移的计数器。
type InstanceService struct {
	instanceDAO *dao.InstanceDAO
	taskDAO     *dao.TaskDAO
	datasetDAO  *dao.DatasetDAO
	mlClient    *MLClient
}

func NewInstanceService() *InstanceService {
	return &InstanceService{
		instanceDAO: dao.NewInstanceDAO(),
		taskDAO:     dao.NewTaskDAO(),
		datasetDAO:  dao.NewDatasetDAO(),
		mlClient:    NewMLClient(),
	}
}

// SubmitTraining 校验请求，提交给 ML 服务，确认后原子落库实例 + 任务。
func (s *InstanceService) SubmitTraining(ctx context.Context, datasetID uint, req TrainingRequest) (*entity2.Instance, error) {
	logger := serviceLogger().With("service", "InstanceService", "method", "SubmitTraining")

	if len(req.ParamsList) == 0 {
		return nil, fmt.Errorf("%w: params_list is empty", ErrValidation)
	}
	ratios, err := normalizeSplitRatios(req.SplitRatios)
	if err != nil {
		return nil, err
	}

	dataset, err := s.datasetDAO.FindByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if dataset.Status != entity2.DatasetStatusValidated && dataset.Status != entity2.DatasetStatusAugmented {
		return nil, fmt.Errorf("%w: dataset %d is %s, training needs VALIDATED or AUGMENTED",
			ErrValidation, datasetID, dataset.Status)
	}

	// 任务 id 先生成，worker 回调按 id 对账
	specs := make([]TrainTaskSpec, 0, len(req.ParamsList))
	tasks := make([]entity2.Task, 0, len(req.ParamsList))
	for i, params := range req.ParamsList {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("%w: hyperparams %d not encodable: %v", ErrValidation, i, err)
		}
		id := uuid.NewString()
		specs = append(specs, TrainTaskSpec{TaskID: id, Hyperparams: params})
		tasks = append(tasks, entity2.Task{
			ID:            id,
			DatasetID:     datasetID,
			Kind:          entity2.TaskKindTraining,
			QueuePosition: i,
			Status:        entity2.TaskStatusQueued,
			Hyperparams:   raw,
		})
	}

	err = s.mlClient.StartTraining(ctx, TrainingSubmission{
		DatasetID:   datasetID,
		Tasks:       specs,
		SplitRatios: ratios,
		UseGPU:      req.UseGPU,
	})
	if err != nil {
		return nil, err
	}

	instance := &entity2.Instance{
		DatasetID: datasetID,
		Kind:      entity2.TaskKindTraining,
		UseGPU:    req.UseGPU,
	}
	if err := s.instanceDAO.SaveWithTasks(ctx, instance, tasks); err != nil {
		return nil, err
	}
	instance.Tasks = tasks

	logger.Info("training instance submitted", "instance_id", instance.ID, "dataset_id", datasetID, "tasks", len(tasks))
	return instance, nil
}

// SubmitTesting 对最新训练实例里所有 COMPLETED 任务各建一个测试任务。
func (s *InstanceService) SubmitTesting(ctx context.Context, datasetID uint, useGPU bool) (*entity2.Instance, error) {
	logger := serviceLogger().With("service", "InstanceService", "method", "SubmitTesting")

	training, err := s.LatestInstance(ctx, datasetID, entity2.TaskKindTraining)
	if err != nil {
		return nil, err
	}

	var eligible []entity2.Task
	for _, t := range training.Tasks {
		if t.Status == entity2.TaskStatusCompleted {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: training instance %d has no COMPLETED tasks", ErrNoEligibleTask, training.ID)
	}

	specs := make([]TestTaskSpec, 0, len(eligible))
	tasks := make([]entity2.Task, 0, len(eligible))
	for i, src := range eligible {
		id := uuid.NewString()
		trainID := src.ID
		specs = append(specs, TestTaskSpec{
			TaskID:      id,
			TrainTaskID: trainID,
			ModelPath:   src.ModelPath,
		})
		tasks = append(tasks, entity2.Task{
			ID:            id,
			DatasetID:     datasetID,
			Kind:          entity2.TaskKindTesting,
			QueuePosition: i,
			Status:        entity2.TaskStatusQueued,
			Hyperparams:   src.Hyperparams,
			ModelPath:     src.ModelPath,
			TrainTaskID:   &trainID,
		})
	}

	err = s.mlClient.StartTesting(ctx, TestingSubmission{
		DatasetID: datasetID,
		Tasks:     specs,
		UseGPU:    useGPU,
	})
	if err != nil {
		return nil, err
	}

	instance := &entity2.Instance{
		DatasetID: datasetID,
		Kind:      entity2.TaskKindTesting,
		UseGPU:    useGPU,
	}
	if err := s.instanceDAO.SaveWithTasks(ctx, instance, tasks); err != nil {
		return nil, err
	}
	instance.Tasks = tasks

	logger.Info("testing instance submitted", "instance_id", instance.ID, "dataset_id", datasetID, "tasks", len(tasks))
	return instance, nil
}

// LatestInstance 最新实例 = created_at 最大（平手取 id 最大）的派生查询。
// 没有实例是正常的稳态（还没训练过），返回 ErrNoInstance 而不是存储错误。
func (s *InstanceService) LatestInstance(ctx context.Context, datasetID uint, kind entity2.TaskKind) (*entity2.Instance, error) {
	instance, err := s.instanceDAO.FindLatest(ctx, datasetID, kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d has no %s instance", ErrNoInstance, datasetID, kind)
		}
		return nil, err
	}

	tasks, err := s.taskDAO.FindByInstanceID(ctx, instance.ID)
	if err != nil {
		return nil, err
	}
	instance.Tasks = tasks
	return instance, nil
}

// LatestInstanceInfo 面板轮询入口：不带实例 id 也能定位最新实例。
func (s *InstanceService) LatestInstanceInfo(ctx context.Context, datasetID uint, kind entity2.TaskKind) (*InstanceInfo, error) {
	instance, err := s.instanceDAO.FindLatest(ctx, datasetID, kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d has no %s instance", ErrNoInstance, datasetID, kind)
		}
		return nil, err
	}

	dataset, err := s.datasetDAO.FindByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	return &InstanceInfo{
		InstanceID:   instance.ID,
		DatasetID:    dataset.ID,
		DatasetName:  dataset.Name,
		DatasetGroup: dataset.GroupKey,
		Kind:         instance.Kind,
	}, nil
}

// GetAggregateStatus 每次调用都从成员任务现算，读操作幂等无副作用。
func (s *InstanceService) GetAggregateStatus(ctx context.Context, instanceID uint) (*entity2.AggregateStatus, error) {
	if _, err := s.instanceDAO.FindByID(ctx, instanceID); err != nil {
		return nil, err
	}
	tasks, err := s.taskDAO.FindByInstanceID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	agg := ComputeAggregate(instanceID, tasks)
	return &agg, nil
}

func (s *InstanceService) GetInstanceTasks(ctx context.Context, instanceID uint) ([]entity2.Task, error) {
	if _, err := s.instanceDAO.FindByID(ctx, instanceID); err != nil {
		return nil, err
	}
	return s.taskDAO.FindByInstanceID(ctx, instanceID)
}

// ComputeAggregate 聚合规则（优先级自上而下）：
//  1. 任一任务 IN_PROGRESS → IN_PROGRESS
//  2. 全部终态 → COMPLETED
//  3. 其余 → QUEUED
//
// 进度 = 终态任务占比 ×100，保留两位小数。任务可能乱序完成，
// 聚合不依赖队列位置推断完成顺序；"当前任务"取队列位置最小的
// IN_PROGRESS 任务，供前端实时图表定位。
func ComputeAggregate(instanceID uint, tasks []entity2.Task) entity2.AggregateStatus {
	counts := map[entity2.TaskStatus]int{
		entity2.TaskStatusQueued:     0,
		entity2.TaskStatusInProgress: 0,
		entity2.TaskStatusCompleted:  0,
		entity2.TaskStatusFailed:     0,
	}

	ordered := make([]entity2.Task, len(tasks))
	copy(ordered, tasks)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].QueuePosition < ordered[j].QueuePosition
	})

	var currentID *string
	for i := range ordered {
		counts[ordered[i].Status]++
		if currentID == nil && ordered[i].Status == entity2.TaskStatusInProgress {
			id := ordered[i].ID
			currentID = &id
		}
	}

	total := len(ordered)
	terminal := counts[entity2.TaskStatusCompleted] + counts[entity2.TaskStatusFailed]

	status := entity2.TaskStatusQueued
	switch {
	case counts[entity2.TaskStatusInProgress] > 0:
		status = entity2.TaskStatusInProgress
	case total > 0 && terminal == total:
		status = entity2.TaskStatusCompleted
	}

	progress := 0.0
	if total > 0 {
		progress = math.Round(100*float64(terminal)/float64(total)*100) / 100
	}

	return entity2.AggregateStatus{
		InstanceID:      instanceID,
		Status:          status,
		Progress:        progress,
		PerStatusCounts: counts,
		CurrentTaskID:   currentID,
		Total:           total,
	}
}

// normalizeSplitRatios 为空时取默认值；显式给出时 train+val+test 必须
// 在容差内等于 1.0。
func normalizeSplitRatios(ratios map[string]float64) (map[string]float64, error) {
	if len(ratios) == 0 {
		out := make(map[string]float64, len(defaultSplitRatios))
		for k, v := range defaultSplitRatios {
			out[k] = v
		}
		return out, nil
	}

	for key := range ratios {
		if key != "train" && key != "val" && key != "test" {
			return nil, fmt.Errorf("%w: unknown split ratio key %q", ErrValidation, key)
		}
	}
	sum := ratios["train"] + ratios["val"] + ratios["test"]
	if math.Abs(sum-1.0) > splitRatioTolerance {
		return nil, fmt.Errorf("%w: split ratios sum to %.4f, expected 1.0 (±%.3f)",
			ErrValidation, sum, splitRatioTolerance)
	}
	return ratios, nil
}
