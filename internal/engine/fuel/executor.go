package fuel

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/engine/interpreter"
	"github.com/pulseengine/wrt/internal/platform"
	"github.com/pulseengine/wrt/internal/wasmruntime"
)

// Config configures a FuelAsyncExecutor: its default ASIL mode, the fuel
// allocation policy used when a task exhausts its slice, the monitor
// thresholds, and the three resource ceilings section 4.3/6 names
// ("validates global fuel headroom", "fails with ResourceLimitExceeded if
// task table or queue is full"). Follows the teacher's copy-on-With
// builder convention (RuntimeConfig in tetratelabs-wazero), generalized to
// this executor's own fields. A zero ceiling means unlimited.
type Config struct {
	DefaultMode        interpreter.ASILMode
	Policy             FuelAllocationPolicy
	MaxDebt            uint64
	HighRateAlert      uint64
	NearExhaustPercent uint64
	MonitorSink        Sink

	GlobalFuelLimit    uint64
	MaxTasks           int
	ReadyQueueCapacity int
}

// NewConfig returns the default configuration: ASIL-A, the default
// enforcement policy wrapped for debt, conservative monitor thresholds,
// and no resource ceilings.
func NewConfig() Config {
	return Config{
		DefaultMode:        interpreter.DefaultASILMode(),
		Policy:             DebtPolicy{Inner: DefaultASILPolicy{}, MaxDebt: 1_000_000},
		MaxDebt:            1_000_000,
		HighRateAlert:      10_000,
		NearExhaustPercent: 90,
	}
}

// WithASILMode returns a copy of c with DefaultMode replaced, the same
// copy-on-With pattern the teacher's RuntimeConfig uses so callers can
// chain configuration without mutating a shared value.
func (c Config) WithASILMode(mode interpreter.ASILMode) Config {
	c.DefaultMode = mode
	return c
}

// WithPolicy returns a copy of c with Policy replaced.
func (c Config) WithPolicy(p FuelAllocationPolicy) Config {
	c.Policy = p
	return c
}

// FuelAsyncExecutor runs a set of fuel-metered tasks cooperatively,
// stepping each one's interpreter a bounded amount per poll pass and
// enforcing its ASIL mode's fuel policy when a task exhausts its slice.
// Grounded on original_source's FuelAsyncExecutor, wired to this Go
// core's ExecutionContext/Step pair instead of a Rust Future poll loop.
type FuelAsyncExecutor struct {
	cfg Config

	mu      sync.Mutex
	tasks   map[uint64]*Task
	nextID  uint64
	clock   *platform.FuelClock
	monitor *FuelMonitor
	debts   map[uint64]*DebtLedger
	preempt PreemptionScheduler

	// globalFuelConsumed is the permanent per-step tally across every task
	// that has reached a terminal state; globalFuelReserved is the sum of
	// FuelBudget across tasks still active, i.e. headroom spoken for but
	// not yet reconciled. SpawnTask checks both against GlobalFuelLimit
	// (section 4.3: "global_fuel_consumed <= global_fuel_limit"). When a
	// task terminates, reclaimGlobalFuel moves its actual FuelConsumed into
	// the permanent tally and drops its full FuelBudget from the
	// reservation, so the pool's total committed fuel falls by exactly
	// fuel_budget - fuel_consumed (section 8 scenario 2: "global fuel
	// reclaimed equals fuel_budget - fuel_consumed").
	globalFuelConsumed uint64
	globalFuelReserved uint64
}

// NewFuelAsyncExecutor constructs an executor from cfg.
func NewFuelAsyncExecutor(cfg Config) *FuelAsyncExecutor {
	return &FuelAsyncExecutor{
		cfg:     cfg,
		tasks:   make(map[uint64]*Task),
		clock:   platform.NewFuelClock(),
		monitor: NewFuelMonitor(cfg.HighRateAlert, cfg.NearExhaustPercent, cfg.MonitorSink),
		debts:   make(map[uint64]*DebtLedger),
	}
}

// SpawnTask registers a new task with the given execution context and
// fuel budget, returning its TaskID. It fails with
// api.CodeResourceLimitExceeded if the task table is full, the ready queue
// is full, or admitting this budget would exceed the configured global
// fuel limit (section 4.3: "Validates global fuel headroom ... fails with
// ResourceLimitExceeded if task table or queue is full").
func (e *FuelAsyncExecutor) SpawnTask(ec *interpreter.ExecutionContext, fuelBudget uint64, priority uint8) (TaskID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.MaxTasks > 0 && len(e.tasks) >= e.cfg.MaxTasks {
		return TaskID{}, api.New(api.CodeResourceLimitExceeded)
	}
	if e.cfg.ReadyQueueCapacity > 0 {
		var ready int
		for _, t := range e.tasks {
			if t.State == TaskStateReady {
				ready++
			}
		}
		if ready >= e.cfg.ReadyQueueCapacity {
			return TaskID{}, api.New(api.CodeResourceLimitExceeded)
		}
	}
	if e.cfg.GlobalFuelLimit > 0 && e.globalFuelConsumed+e.globalFuelReserved+fuelBudget > e.cfg.GlobalFuelLimit {
		return TaskID{}, api.New(api.CodeResourceLimitExceeded)
	}

	e.nextID++
	id := NewTaskID(e.nextID)
	e.tasks[id.Numeric] = &Task{
		ID:         id,
		State:      TaskStateReady,
		Context:    ec,
		FuelBudget: fuelBudget,
		Priority:   priority,
	}
	e.debts[id.Numeric] = &DebtLedger{}
	e.globalFuelReserved += fuelBudget
	return id, nil
}

// reclaimGlobalFuel releases t's unused reserved headroom back to the
// global pool once t reaches a terminal state, and folds its actual usage
// into the permanent globalFuelConsumed tally. Must be called exactly
// once per task, at the point it becomes terminal.
func (e *FuelAsyncExecutor) reclaimGlobalFuel(t *Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalFuelConsumed += t.FuelConsumed
	e.globalFuelReserved -= t.FuelBudget
}

// growReservedFuel extends the global reservation pool when a task's
// budget grows mid-flight (DecisionAllowWithRollover), keeping the
// reservation in sync with what reclaimGlobalFuel will later release.
func (e *FuelAsyncExecutor) growReservedFuel(delta uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalFuelReserved += delta
}

// GlobalFuelConsumed returns the permanent fuel tally across every task
// that has reached a terminal state.
func (e *FuelAsyncExecutor) GlobalFuelConsumed() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.globalFuelConsumed
}

// GetTaskStatus returns the task's current state, or (TaskStateFailed,
// false) if no such task exists.
func (e *FuelAsyncExecutor) GetTaskStatus(id TaskID) (AsyncTaskState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[id.Numeric]
	if !ok {
		return TaskStateFailed, false
	}
	return t.State, true
}

// WakeTask transitions a waiting/yielded task back to ready. conditionMet
// is the caller's (the component that owns the resource or event a
// waiting task named) claim that the condition now holds; WakeTask
// re-checks it against the task's own pendingCondition via
// ExecutionContext.CanResume rather than trusting the claim outright, so
// a stale or mistaken wake never resumes a task whose condition has not
// actually been satisfied.
func (e *FuelAsyncExecutor) WakeTask(id TaskID, conditionMet bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[id.Numeric]
	if !ok || t.State != TaskStateWaiting {
		return false
	}
	if !t.Context.CanResume(t.pendingCondition, conditionMet) {
		return false
	}
	t.pendingCondition = nil
	t.State = TaskStateReady
	return true
}

// PollTasks steps every runnable task up to maxStepsPerTask instructions,
// applying each task's ASIL fuel policy when its slice runs out, and
// returns the ids that reached a terminal state (completed, failed or
// fuel-exhausted) this pass.
func (e *FuelAsyncExecutor) PollTasks(maxStepsPerTask int) []TaskID {
	e.mu.Lock()
	ready := make([]*Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if t.State == TaskStateReady {
			ready = append(ready, t)
		}
	}
	ready = OrderByPriority(ready)
	e.mu.Unlock()

	var finished []TaskID
	for _, t := range ready {
		if e.stepTask(t, maxStepsPerTask) {
			finished = append(finished, t.ID)
		}
	}
	return finished
}

// stepTask advances t up to maxSteps instructions, returning true if it
// reached a terminal state (completed, failed or fuel-exhausted) this pass.
func (e *FuelAsyncExecutor) stepTask(t *Task, maxSteps int) (terminal bool) {
	t.State = TaskStateRunning
	defer func() {
		if r := recover(); r != nil {
			if trap, ok := r.(*wasmruntime.TrapError); ok {
				t.Err = trap
			} else if err, ok := r.(error); ok {
				t.Err = err
			}
			t.State = TaskStateFailed
			e.reclaimGlobalFuel(t)
			terminal = true
		}
	}()

	ledger := e.debts[t.ID.Numeric]
	for i := 0; i < maxSteps; i++ {
		if t.Context.CurrentFrame() == nil {
			t.State = TaskStateCompleted
			e.reclaimGlobalFuel(t)
			return true
		}
		if t.RemainingFuel() == 0 {
			now := e.clock.Now()
			ledger.AccrueInterest(now)
			switch e.cfg.Policy.OnExhausted(t.Context.ASILMode, t) {
			case DecisionDeny:
				t.State = TaskStateFuelExhausted
				t.Err = errFuelExhausted
				e.reclaimGlobalFuel(t)
				return true
			case DecisionAllowWithDebt:
				ledger.Borrow(1)
				t.FuelDebt = ledger.Outstanding
			case DecisionAllowWithRollover:
				t.FuelBudget += 1
				e.growReservedFuel(1)
			case DecisionRequireYield:
				t.Context.CreateYieldPoint(interpreter.YieldFuelExhausted)
				t.State = TaskStateWaiting
				return false
			default: // DecisionAllowWithWarning, DecisionAllowWithTransfer
			}
		}

		outcome := interpreter.Step(t.Context)
		t.FuelConsumed++
		e.clock.Advance(1)
		e.monitor.Record(t, e.clock.Now(), 1)

		switch outcome.Kind {
		case interpreter.OutcomeReturn:
			if len(t.Context.Frames) == 0 {
				t.State = TaskStateCompleted
				e.reclaimGlobalFuel(t)
				return true
			}
		case interpreter.OutcomeCall:
			nf, err := interpreter.NewStacklessFrame(outcome.CallTarget, outcome.CallFuncIndex, outcome.CallArgs, interpreter.MaxLocals)
			if err != nil {
				t.Err = err
				t.State = TaskStateFailed
				e.reclaimGlobalFuel(t)
				return true
			}
			if err := t.Context.PushFrame(nf); err != nil {
				t.Err = err
				t.State = TaskStateFailed
				e.reclaimGlobalFuel(t)
				return true
			}
		case interpreter.OutcomeYield:
			t.Context.CreateYieldPoint(outcome.Yield)
			t.State = TaskStateWaiting
			return false
		}
	}
	t.State = TaskStateReady
	return false
}

// fuelExhaustedError is the sentinel Err a task carries when DecisionDeny
// drives it to TaskStateFuelExhausted, distinct from a wasmruntime trap
// so callers can tell "ran out of budget" from "the code itself trapped".
type fuelExhaustedError struct{}

func (fuelExhaustedError) Error() string { return "task denied: fuel budget exhausted" }

var errFuelExhausted = fuelExhaustedError{}

// GetFuelAlerts returns every alert the monitor has raised and not yet
// cleared, across all tasks — a point-in-time snapshot rather than a
// stream, matching get_fuel_alerts' polling shape in original_source.
func (e *FuelAsyncExecutor) GetFuelAlerts() []FuelAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []FuelAlert
	for id, kinds := range e.monitor.active {
		t := e.tasks[id]
		if t == nil {
			continue
		}
		for k, on := range kinds {
			if on {
				out = append(out, FuelAlert{TaskID: t.ID, Kind: k})
			}
		}
	}
	return out
}

// Shutdown runs its cancellation pass in a golang.org/x/sync/errgroup
// goroutine the way SPEC_FULL.md section 2 wires it and waits for that
// pass. The pass holds the executor mutex; it does not wait for a
// PollTasks pass that is stepping tasks outside the mutex. Every task not
// already in a terminal state — Ready, Running, Waiting, or Preempted — is
// marked Cancelled and drops out of the ready queue, per section 4.3.
func (e *FuelAsyncExecutor) Shutdown(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		for _, t := range e.tasks {
			if t.State.IsTerminal() {
				continue
			}
			t.State = TaskStateCancelled
			t.Err = ctx.Err()
			e.globalFuelConsumed += t.FuelConsumed
			e.globalFuelReserved -= t.FuelBudget
		}
		return nil
	})
	return g.Wait()
}
