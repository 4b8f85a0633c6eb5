package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt/internal/engine/interpreter"
)

func TestNewTaskID_AssignsLabel(t *testing.T) {
	id := NewTaskID(42)
	require.Equal(t, uint64(42), id.Numeric)
	require.NotEmpty(t, id.Label)
}

func TestAsyncTaskState_String(t *testing.T) {
	require.Equal(t, "ready", TaskStateReady.String())
	require.Equal(t, "completed", TaskStateCompleted.String())
	require.Equal(t, "unknown", AsyncTaskState(255).String())
}

func TestTask_RemainingFuel(t *testing.T) {
	task := &Task{FuelBudget: 100, FuelConsumed: 40}
	require.Equal(t, uint64(60), task.RemainingFuel())

	task.FuelConsumed = 100
	require.Equal(t, uint64(0), task.RemainingFuel())

	task.FuelConsumed = 150 // debt accounting can push consumed past budget
	require.Equal(t, uint64(0), task.RemainingFuel())
}

func TestTask_IsRunnable(t *testing.T) {
	task := &Task{State: TaskStateReady, FuelBudget: 10}
	require.True(t, task.IsRunnable())

	task.FuelConsumed = 10
	require.False(t, task.IsRunnable())

	task.FuelConsumed = 0
	task.State = TaskStateWaiting
	require.False(t, task.IsRunnable())
}

func TestTask_SetWaiting(t *testing.T) {
	task := &Task{State: TaskStateReady}
	cond := &interpreter.ResumptionCondition{Kind: interpreter.ResumeManual}
	task.SetWaiting(cond)
	require.Equal(t, TaskStateWaiting, task.State)
	require.Same(t, cond, task.pendingCondition)
}
