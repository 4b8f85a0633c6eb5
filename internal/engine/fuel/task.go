// Package fuel implements the fuel-metered async task executor: spawning,
// polling, waking, and preempting tasks whose interpreter state lives in
// an internal/engine/interpreter.ExecutionContext, enforcing the ASIL
// policy attached to each task and recording fuel usage through a
// FuelMonitor. Grounded on original_source/wrt-component/src/async_/
// fuel_async_executor.rs, translated into the teacher's own worker-pool
// idiom (a task table owned by the executor plus goroutine-free polling,
// matching tetratelabs-wazero's preference for explicit state machines
// over goroutine-per-request).
package fuel

import (
	"github.com/google/uuid"

	"github.com/pulseengine/wrt/internal/engine/interpreter"
)

// TaskID uniquely labels a task. The numeric id is what scheduling logic
// actually compares; the UUID is attached purely for human-readable
// labeling in logs and the admin-facing task list, per SPEC_FULL.md
// section 2's google/uuid wiring decision.
type TaskID struct {
	Numeric uint64
	Label   string
}

// NewTaskID allocates a TaskID with a fresh UUID label.
func NewTaskID(numeric uint64) TaskID {
	return TaskID{Numeric: numeric, Label: uuid.NewString()}
}

// AsyncTaskState is a task's coarse lifecycle state, per section 3.5:
// Ready, Waiting, Completed, Failed, Cancelled, FuelExhausted. Running and
// Preempted are this executor's own transient substates of Ready (a task
// mid-poll, or displaced by a higher-priority one) and are never observed
// as terminal by GetTaskStatus callers.
type AsyncTaskState byte

const (
	TaskStateReady AsyncTaskState = iota
	TaskStateRunning
	TaskStateWaiting
	TaskStatePreempted
	TaskStateCompleted
	TaskStateFailed
	TaskStateCancelled
	TaskStateFuelExhausted
)

func (s AsyncTaskState) String() string {
	switch s {
	case TaskStateReady:
		return "ready"
	case TaskStateRunning:
		return "running"
	case TaskStateWaiting:
		return "waiting"
	case TaskStatePreempted:
		return "preempted"
	case TaskStateCompleted:
		return "completed"
	case TaskStateFailed:
		return "failed"
	case TaskStateCancelled:
		return "cancelled"
	case TaskStateFuelExhausted:
		return "fuel_exhausted"
	}
	return "unknown"
}

// IsTerminal reports whether s is one of the state machine's terminal
// states (section 4.3: "terminal states release fuel tracking and, on
// Completed, grant unused-fuel credit").
func (s AsyncTaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled, TaskStateFuelExhausted:
		return true
	}
	return false
}

// Task is one schedulable unit of fuel-metered execution: its interpreter
// state, ASIL policy, fuel budget, and current lifecycle state.
type Task struct {
	ID    TaskID
	State AsyncTaskState

	Context *interpreter.ExecutionContext

	FuelBudget    uint64
	FuelConsumed  uint64
	FuelDebt      uint64
	Priority      uint8

	Result []byte // opaque encoded result; FuelAsyncExecutor never sets it
	Err    error  // set on TaskStateFailed, TaskStateFuelExhausted and TaskStateCancelled

	// pendingCondition is non-nil while State == TaskStateWaiting, checked
	// by WakeTask before resuming.
	pendingCondition *interpreter.ResumptionCondition
}

// RemainingFuel returns the task's unconsumed budget, or 0 if exhausted
// (FuelConsumed may exceed FuelBudget transiently under debt/credit
// accounting; see debtcredit.go).
func (t *Task) RemainingFuel() uint64 {
	if t.FuelConsumed >= t.FuelBudget {
		return 0
	}
	return t.FuelBudget - t.FuelConsumed
}

// IsRunnable reports whether t can be handed to the interpreter this poll
// pass, i.e. it has fuel left and isn't blocked on an unmet condition.
func (t *Task) IsRunnable() bool {
	switch t.State {
	case TaskStateReady, TaskStateRunning:
		return t.RemainingFuel() > 0
	}
	return false
}

// SetWaiting marks t as blocked on cond, moving it out of the ready pool
// until WakeTask confirms the condition holds. Used by whatever component
// owns the resource or event a task's task.wait names (section 3.6).
func (t *Task) SetWaiting(cond *interpreter.ResumptionCondition) {
	t.pendingCondition = cond
	t.State = TaskStateWaiting
}
