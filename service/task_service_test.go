package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	entity2 "mlops_webapp/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitionCall struct {
	from    []entity2.TaskStatus
	updates map[string]interface{}
}

// fakeTaskStore 模拟条件更新语义：rows 由测试预设，task 按调用顺序返回。
type fakeTaskStore struct {
	tasks       []entity2.Task
	findCalls   int
	rows        int64
	transitions []transitionCall
	reapCutoffs []time.Time
	reapReasons []string
}

func (f *fakeTaskStore) FindByID(_ context.Context, _ string) (*entity2.Task, error) {
	i := f.findCalls
	if i >= len(f.tasks) {
		i = len(f.tasks) - 1
	}
	f.findCalls++
	task := f.tasks[i]
	return &task, nil
}

func (f *fakeTaskStore) TransitionIf(_ context.Context, _ string, from []entity2.TaskStatus, updates map[string]interface{}) (int64, error) {
	f.transitions = append(f.transitions, transitionCall{from: from, updates: updates})
	return f.rows, nil
}

func (f *fakeTaskStore) ReapStuck(_ context.Context, cutoff time.Time, reason string) (int64, error) {
	f.reapCutoffs = append(f.reapCutoffs, cutoff)
	f.reapReasons = append(f.reapReasons, reason)
	return 2, nil
}

func taskWithStatus(status entity2.TaskStatus) entity2.Task {
	return entity2.Task{ID: "task-1", Status: status}
}

func TestMarkInProgressIdempotentWhileRunning(t *testing.T) {
	store := &fakeTaskStore{tasks: []entity2.Task{taskWithStatus(entity2.TaskStatusInProgress)}}
	s := &TaskService{taskDAO: store}

	err := s.MarkInProgress(context.Background(), "task-1")
	assert.NoError(t, err)
	assert.Empty(t, store.transitions)
}

func TestMarkInProgressRejectsTerminalWithoutWriting(t *testing.T) {
	for _, status := range []entity2.TaskStatus{entity2.TaskStatusCompleted, entity2.TaskStatusFailed} {
		store := &fakeTaskStore{tasks: []entity2.Task{taskWithStatus(status)}}
		s := &TaskService{taskDAO: store}

		err := s.MarkInProgress(context.Background(), "task-1")
		assert.ErrorIs(t, err, ErrInvalidTaskState, status)
		assert.Empty(t, store.transitions, status)
	}
}

func TestMarkInProgressFromQueued(t *testing.T) {
	store := &fakeTaskStore{
		tasks: []entity2.Task{taskWithStatus(entity2.TaskStatusQueued)},
		rows:  1,
	}
	s := &TaskService{taskDAO: store}

	err := s.MarkInProgress(context.Background(), "task-1")
	require.NoError(t, err)
	require.Len(t, store.transitions, 1)
	assert.Equal(t, []entity2.TaskStatus{entity2.TaskStatusQueued}, store.transitions[0].from)
	assert.Equal(t, entity2.TaskStatusInProgress, store.transitions[0].updates["status"])
}

// 条件更新落空但重读已是 IN_PROGRESS：并发回调抢先，按幂等成功处理。
func TestMarkInProgressLostRaceToConcurrentStart(t *testing.T) {
	store := &fakeTaskStore{
		tasks: []entity2.Task{
			taskWithStatus(entity2.TaskStatusQueued),
			taskWithStatus(entity2.TaskStatusInProgress),
		},
	}
	s := &TaskService{taskDAO: store}

	assert.NoError(t, s.MarkInProgress(context.Background(), "task-1"))
}

func TestMarkCompletedRequiresRunning(t *testing.T) {
	for _, status := range []entity2.TaskStatus{entity2.TaskStatusQueued, entity2.TaskStatusCompleted, entity2.TaskStatusFailed} {
		store := &fakeTaskStore{tasks: []entity2.Task{taskWithStatus(status)}}
		s := &TaskService{taskDAO: store}

		err := s.MarkCompleted(context.Background(), "task-1", map[string]float64{"metrics/mAP50(B)": 0.9}, "runs/best.pt")
		assert.ErrorIs(t, err, ErrInvalidTaskState, status)
		// 条件更新以 IN_PROGRESS 为前置，0 行生效等于没写
		require.Len(t, store.transitions, 1, status)
		assert.Equal(t, []entity2.TaskStatus{entity2.TaskStatusInProgress}, store.transitions[0].from, status)
	}
}

func TestMarkCompletedWritesResultsAndArtifact(t *testing.T) {
	store := &fakeTaskStore{
		tasks: []entity2.Task{taskWithStatus(entity2.TaskStatusInProgress)},
		rows:  1,
	}
	s := &TaskService{taskDAO: store}

	err := s.MarkCompleted(context.Background(), "task-1", map[string]float64{"metrics/mAP50(B)": 0.9}, "runs/best.pt")
	require.NoError(t, err)
	require.Len(t, store.transitions, 1)

	updates := store.transitions[0].updates
	assert.Equal(t, entity2.TaskStatusCompleted, updates["status"])
	assert.Equal(t, "runs/best.pt", updates["model_path"])
	assert.JSONEq(t, `{"metrics/mAP50(B)": 0.9}`, string(updates["results"].(json.RawMessage)))
	assert.NotNil(t, updates["finished_at"])
}

func TestMarkFailedRequiresRunning(t *testing.T) {
	for _, status := range []entity2.TaskStatus{entity2.TaskStatusQueued, entity2.TaskStatusCompleted, entity2.TaskStatusFailed} {
		store := &fakeTaskStore{tasks: []entity2.Task{taskWithStatus(status)}}
		s := &TaskService{taskDAO: store}

		err := s.MarkFailed(context.Background(), "task-1", "cuda out of memory")
		assert.ErrorIs(t, err, ErrInvalidTaskState, status)
	}
}

func TestReportProgressOnlyWhileRunning(t *testing.T) {
	for _, status := range []entity2.TaskStatus{entity2.TaskStatusQueued, entity2.TaskStatusCompleted, entity2.TaskStatusFailed} {
		store := &fakeTaskStore{tasks: []entity2.Task{taskWithStatus(status)}}
		s := &TaskService{taskDAO: store}

		err := s.ReportProgress(context.Background(), "task-1", entity2.MetricsPoint{Epoch: 1})
		assert.ErrorIs(t, err, ErrInvalidTaskState, status)
		assert.Empty(t, store.transitions, status)
	}
}

func TestReportProgressAppendsToHistory(t *testing.T) {
	task := taskWithStatus(entity2.TaskStatusInProgress)
	task.MetricsHistory = json.RawMessage(`[{"epoch":1,"metrics":{"loss":0.4}}]`)
	store := &fakeTaskStore{tasks: []entity2.Task{task}, rows: 1}
	s := &TaskService{taskDAO: store}

	err := s.ReportProgress(context.Background(), "task-1", entity2.MetricsPoint{
		Epoch:   2,
		Metrics: map[string]float64{"loss": 0.3},
	})
	require.NoError(t, err)
	require.Len(t, store.transitions, 1)

	var history []entity2.MetricsPoint
	raw := store.transitions[0].updates["metrics_history"].(json.RawMessage)
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[1].Epoch)
}

func TestReapStuckDisabledReturnsZero(t *testing.T) {
	s := &TaskService{}

	reaped, err := s.ReapStuck(context.Background(), 0)
	assert.NoError(t, err)
	assert.Zero(t, reaped)

	reaped, err = s.ReapStuck(context.Background(), -time.Minute)
	assert.NoError(t, err)
	assert.Zero(t, reaped)
}

func TestReapStuckDelegatesWithCutoff(t *testing.T) {
	store := &fakeTaskStore{tasks: []entity2.Task{{}}}
	s := &TaskService{taskDAO: store}

	reaped, err := s.ReapStuck(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reaped)
	require.Len(t, store.reapCutoffs, 1)
	assert.WithinDuration(t, time.Now().Add(-30*time.Minute), store.reapCutoffs[0], 5*time.Second)
	assert.Contains(t, store.reapReasons[0], "30m")
}

func TestStartStuckReaperDisabledIsNoop(t *testing.T) {
	s := &TaskService{}
	// maxAge<=0 不启动后台循环，带 nil DAO 也不该有任何动作
	s.StartStuckReaper(context.Background(), 0, time.Second)
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.False(t, entity2.TaskStatusQueued.Terminal())
	assert.False(t, entity2.TaskStatusInProgress.Terminal())
	assert.True(t, entity2.TaskStatusCompleted.Terminal())
	assert.True(t, entity2.TaskStatusFailed.Terminal())
}
