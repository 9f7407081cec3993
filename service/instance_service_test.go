package service

import (
	"testing"

	entity2 "mlops_webapp/entity"

	"github.com/stretchr/testify/assert"
)

func makeTasks(statuses ...entity2.TaskStatus) []entity2.Task {
	tasks := make([]entity2.Task, len(statuses))
	for i, s := range statuses {
		tasks[i] = entity2.Task{
			ID:            string(rune('a' + i)),
			QueuePosition: i,
			Status:        s,
		}
	}
	return tasks
}

func TestComputeAggregateAllQueued(t *testing.T) {
	agg := ComputeAggregate(1, makeTasks(
		entity2.TaskStatusQueued, entity2.TaskStatusQueued, entity2.TaskStatusQueued,
	))

	assert.Equal(t, entity2.TaskStatusQueued, agg.Status)
	assert.Equal(t, 0.0, agg.Progress)
	assert.Equal(t, 3, agg.PerStatusCounts[entity2.TaskStatusQueued])
	assert.Nil(t, agg.CurrentTaskID)
}

func TestComputeAggregateAllTerminal(t *testing.T) {
	agg := ComputeAggregate(1, makeTasks(
		entity2.TaskStatusCompleted, entity2.TaskStatusFailed, entity2.TaskStatusCompleted,
	))

	assert.Equal(t, entity2.TaskStatusCompleted, agg.Status)
	assert.Equal(t, 100.0, agg.Progress)
	assert.Equal(t, 2, agg.PerStatusCounts[entity2.TaskStatusCompleted])
	assert.Equal(t, 1, agg.PerStatusCounts[entity2.TaskStatusFailed])
}

// 一个任务完成、其余还在排队：没有 IN_PROGRESS 且未全部终态，
// 聚合状态必须是 QUEUED —— 校验三条规则的精确优先级。
func TestComputeAggregateStatusPrecedence(t *testing.T) {
	agg := ComputeAggregate(1, makeTasks(
		entity2.TaskStatusQueued, entity2.TaskStatusCompleted, entity2.TaskStatusQueued,
	))

	assert.Equal(t, entity2.TaskStatusQueued, agg.Status)
	assert.InDelta(t, 33.33, agg.Progress, 0.001)

	// 任一 IN_PROGRESS 压过其它一切
	agg = ComputeAggregate(1, makeTasks(
		entity2.TaskStatusCompleted, entity2.TaskStatusInProgress, entity2.TaskStatusFailed,
	))
	assert.Equal(t, entity2.TaskStatusInProgress, agg.Status)
	assert.InDelta(t, 66.67, agg.Progress, 0.001)
}

func TestComputeAggregateCurrentTaskIsFirstInProgressByPosition(t *testing.T) {
	tasks := []entity2.Task{
		{ID: "t2", QueuePosition: 2, Status: entity2.TaskStatusInProgress},
		{ID: "t0", QueuePosition: 0, Status: entity2.TaskStatusCompleted},
		{ID: "t1", QueuePosition: 1, Status: entity2.TaskStatusInProgress},
	}

	agg := ComputeAggregate(1, tasks)
	if assert.NotNil(t, agg.CurrentTaskID) {
		assert.Equal(t, "t1", *agg.CurrentTaskID)
	}
}

func TestComputeAggregateProgressForEverySubset(t *testing.T) {
	// 任意状态组合下 progress == 100*(completed+failed)/total
	all := []entity2.TaskStatus{
		entity2.TaskStatusQueued,
		entity2.TaskStatusInProgress,
		entity2.TaskStatusCompleted,
		entity2.TaskStatusFailed,
	}
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				agg := ComputeAggregate(1, makeTasks(a, b, c))
				terminal := 0
				for _, s := range []entity2.TaskStatus{a, b, c} {
					if s.Terminal() {
						terminal++
					}
				}
				want := 100 * float64(terminal) / 3
				assert.InDelta(t, want, agg.Progress, 0.005, "statuses=%v,%v,%v", a, b, c)
			}
		}
	}
}

func TestNormalizeSplitRatiosDefaults(t *testing.T) {
	ratios, err := normalizeSplitRatios(nil)
	assert.NoError(t, err)
	assert.Equal(t, defaultSplitRatios, ratios)
}

func TestNormalizeSplitRatiosTolerance(t *testing.T) {
	_, err := normalizeSplitRatios(map[string]float64{"train": 0.7, "val": 0.2, "test": 0.1005})
	assert.NoError(t, err)

	_, err = normalizeSplitRatios(map[string]float64{"train": 0.7, "val": 0.2, "test": 0.2})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = normalizeSplitRatios(map[string]float64{"train": 0.7, "val": 0.2, "holdout": 0.1})
	assert.ErrorIs(t, err, ErrValidation)
}
