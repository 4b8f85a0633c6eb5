package fuel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/engine/interpreter"
)

func TestFuelAsyncExecutor_SpawnPollComplete(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	ec := noopContext(t)
	id, err := e.SpawnTask(ec, 1000, 5)
	require.NoError(t, err)

	state, ok := e.GetTaskStatus(id)
	require.True(t, ok)
	require.Equal(t, TaskStateReady, state)

	finished := e.PollTasks(10)
	require.Contains(t, finished, id)

	state, ok = e.GetTaskStatus(id)
	require.True(t, ok)
	require.Equal(t, TaskStateCompleted, state)
}

func TestFuelAsyncExecutor_UnknownTaskStatus(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	_, ok := e.GetTaskStatus(NewTaskID(999))
	require.False(t, ok)
}

func TestFuelAsyncExecutor_ASILDDeniesOnExhaustion(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	ec := noopContext(t)
	ec.ASILMode = interpreter.ASILMode{Level: interpreter.ASILLevelD}
	id, err := e.SpawnTask(ec, 0, 1)
	require.NoError(t, err)

	finished := e.PollTasks(10)
	require.Contains(t, finished, id)
	state, _ := e.GetTaskStatus(id)
	require.Equal(t, TaskStateFuelExhausted, state)
}

func TestFuelAsyncExecutor_ASILCYieldsOnExhaustion(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	ec := noopContext(t)
	ec.ASILMode = interpreter.ASILMode{Level: interpreter.ASILLevelC}
	id, err := e.SpawnTask(ec, 0, 1)
	require.NoError(t, err)

	finished := e.PollTasks(10)
	require.NotContains(t, finished, id)
	state, _ := e.GetTaskStatus(id)
	require.Equal(t, TaskStateWaiting, state)
}

func TestFuelAsyncExecutor_ASILAWarnsAndContinues(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	ec := noopContext(t) // DefaultASILMode is already ASIL-A
	id, err := e.SpawnTask(ec, 0, 1)
	require.NoError(t, err)

	finished := e.PollTasks(10)
	require.Contains(t, finished, id)
	state, _ := e.GetTaskStatus(id)
	require.Equal(t, TaskStateCompleted, state)
}

func TestFuelAsyncExecutor_ASILBRolloverWhenStrict(t *testing.T) {
	cfg := NewConfig().WithPolicy(DefaultASILPolicy{})
	e := NewFuelAsyncExecutor(cfg)
	ec := noopContext(t)
	ec.ASILMode = interpreter.ASILMode{Level: interpreter.ASILLevelB, StrictResourceLimits: true}
	id, err := e.SpawnTask(ec, 0, 1)
	require.NoError(t, err)

	finished := e.PollTasks(10)
	require.Contains(t, finished, id)
	state, _ := e.GetTaskStatus(id)
	require.Equal(t, TaskStateCompleted, state)
}

func TestFuelAsyncExecutor_ASILBDeniesWhenNotStrict(t *testing.T) {
	cfg := NewConfig().WithPolicy(DefaultASILPolicy{})
	e := NewFuelAsyncExecutor(cfg)
	ec := noopContext(t)
	ec.ASILMode = interpreter.ASILMode{Level: interpreter.ASILLevelB, StrictResourceLimits: false}
	id, err := e.SpawnTask(ec, 0, 1)
	require.NoError(t, err)

	finished := e.PollTasks(10)
	require.Contains(t, finished, id)
	state, _ := e.GetTaskStatus(id)
	require.Equal(t, TaskStateFuelExhausted, state)
}

func TestFuelAsyncExecutor_WakeTaskHonorsResumptionCondition(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	ec := noopContext(t)
	id, err := e.SpawnTask(ec, 1000, 1)
	require.NoError(t, err)

	task := e.tasks[id.Numeric]
	task.SetWaiting(&interpreter.ResumptionCondition{Kind: interpreter.ResumeFuelRecovered, FuelAmount: 5})
	require.Equal(t, TaskStateWaiting, task.State)

	// A claim of "condition met" is not enough on its own: fuel-recovered
	// conditions are re-checked against the context's own counter.
	require.False(t, e.WakeTask(id, true))
	require.Equal(t, TaskStateWaiting, task.State)

	ec.ContextFuelConsumed = 5
	require.True(t, e.WakeTask(id, true))
	require.Equal(t, TaskStateReady, task.State)
}

func TestFuelAsyncExecutor_WakeTaskManualCondition(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	ec := noopContext(t)
	id, err := e.SpawnTask(ec, 1000, 1)
	require.NoError(t, err)

	task := e.tasks[id.Numeric]
	task.SetWaiting(&interpreter.ResumptionCondition{Kind: interpreter.ResumeManual})

	require.False(t, e.WakeTask(id, false))
	require.True(t, e.WakeTask(id, true))
}

func TestFuelAsyncExecutor_WakeTaskRejectsUnknownOrRunningTask(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())
	require.False(t, e.WakeTask(NewTaskID(999), true))

	ec := noopContext(t)
	id, err := e.SpawnTask(ec, 1000, 1)
	require.NoError(t, err)
	require.False(t, e.WakeTask(id, true)) // task is Ready, not Waiting
}

func TestFuelAsyncExecutor_ShutdownCancelsNonTerminalTasks(t *testing.T) {
	e := NewFuelAsyncExecutor(NewConfig())

	running, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)
	e.tasks[running.Numeric].State = TaskStateRunning

	waiting, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)
	e.tasks[waiting.Numeric].SetWaiting(&interpreter.ResumptionCondition{Kind: interpreter.ResumeManual})

	preempted, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)
	e.tasks[preempted.Numeric].State = TaskStatePreempted

	ready, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)

	completed, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)
	e.tasks[completed.Numeric].State = TaskStateCompleted

	require.NoError(t, e.Shutdown(context.Background()))

	for _, id := range []TaskID{running, waiting, preempted, ready} {
		state, _ := e.GetTaskStatus(id)
		require.Equal(t, TaskStateCancelled, state, "task %v", id)
	}

	state, _ := e.GetTaskStatus(completed)
	require.Equal(t, TaskStateCompleted, state, "already-terminal task must be left untouched")
}

func TestFuelAsyncExecutor_SpawnTaskRejectsWhenTaskTableFull(t *testing.T) {
	cfg := NewConfig()
	cfg.MaxTasks = 1
	e := NewFuelAsyncExecutor(cfg)

	_, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)

	_, err = e.SpawnTask(noopContext(t), 1000, 1)
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, api.CodeResourceLimitExceeded, apiErr.Code)
}

func TestFuelAsyncExecutor_SpawnTaskRejectsWhenReadyQueueFull(t *testing.T) {
	cfg := NewConfig()
	cfg.ReadyQueueCapacity = 1
	e := NewFuelAsyncExecutor(cfg)

	_, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)

	_, err = e.SpawnTask(noopContext(t), 1000, 1)
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, api.CodeResourceLimitExceeded, apiErr.Code)
}

func TestFuelAsyncExecutor_SpawnTaskRejectsWhenGlobalFuelExhausted(t *testing.T) {
	cfg := NewConfig()
	cfg.GlobalFuelLimit = 1500
	e := NewFuelAsyncExecutor(cfg)

	_, err := e.SpawnTask(noopContext(t), 1000, 1)
	require.NoError(t, err)

	_, err = e.SpawnTask(noopContext(t), 1000, 1)
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, api.CodeResourceLimitExceeded, apiErr.Code)
}

func TestFuelAsyncExecutor_GlobalFuelReclaimedOnCompletion(t *testing.T) {
	cfg := NewConfig()
	cfg.GlobalFuelLimit = 1000
	e := NewFuelAsyncExecutor(cfg)
	ec := noopContext(t)
	id, err := e.SpawnTask(ec, 1000, 1)
	require.NoError(t, err)

	finished := e.PollTasks(10)
	require.Contains(t, finished, id)

	task := e.tasks[id.Numeric]
	require.Equal(t, task.FuelConsumed, e.GlobalFuelConsumed())

	// The reclaimed headroom (fuel_budget - fuel_consumed) is available
	// to a newly spawned task, so the global limit isn't permanently
	// pinned by a completed task's original budget.
	_, err = e.SpawnTask(noopContext(t), 1000-task.FuelConsumed, 1)
	require.NoError(t, err)
}
