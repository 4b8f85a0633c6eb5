package interpreter

import "github.com/pulseengine/wrt/api"

// ASILMode mirrors the original's ASILExecutionMode enum (section 9, and
// original_source/wrt-component/src/async_/fuel_async_executor.rs), each
// variant carrying the parameters its ASIL level polices.
type ASILMode struct {
	Level ASILLevel

	// ASIL-A
	ErrorDetection bool

	// ASIL-B
	StrictResourceLimits bool
	MaxExecutionSliceMs  uint32

	// ASIL-C
	SpatialIsolation  bool
	TemporalIsolation bool
	ResourceIsolation bool

	// ASIL-D
	DeterministicExecution bool
	BoundedExecutionTime   bool
	FormalVerification     bool
	MaxFuelPerSlice        uint64
}

// ASILLevel is the Automotive Safety Integrity Level, A (least strict)
// through D (most strict), per the GLOSSARY.
type ASILLevel byte

const (
	ASILLevelA ASILLevel = iota
	ASILLevelB
	ASILLevelC
	ASILLevelD
)

// DefaultASILMode returns ASIL-A with basic error detection, the default
// the original source uses for ASILExecutionMode.
func DefaultASILMode() ASILMode {
	return ASILMode{Level: ASILLevelA, ErrorDetection: true}
}

// maxStackDepthTable is the ASIL-derived default maximum frame-chain depth
// named in original_source/wrt-component/.../fuel_async_executor.rs
// (ExecutionContext::new): D=16, C=32, B=64, A=128 — stricter ASIL levels
// get smaller limits because a shallower, more predictable call chain is
// easier to bound and certify.
var maxStackDepthTable = map[ASILLevel]uint32{
	ASILLevelD: 16,
	ASILLevelC: 32,
	ASILLevelB: 64,
	ASILLevelA: 128,
}

// MaxStackDepthFor returns the default max frame-chain depth for level.
func MaxStackDepthFor(level ASILLevel) uint32 { return maxStackDepthTable[level] }

// YieldType identifies why an interpreter yielded, per section 3.6.
type YieldType byte

const (
	YieldFuelExhausted YieldType = iota
	YieldTimeSliceExpired
	YieldAsyncWait
	YieldExplicitYield
	YieldStackDepthLimit
	YieldASILCompliance
	YieldPreemption
)

// ResumptionConditionKind identifies what must become true before a
// yielded task may resume, per section 3.6.
type ResumptionConditionKind byte

const (
	ResumeResourceAvailable ResumptionConditionKind = iota
	ResumeFuelRecovered
	ResumeTimeElapsed
	ResumeExternalEvent
	ResumeManual
)

// ResumptionCondition is the criterion CanResume checks before a waiting
// task's interpreter state is resumed.
type ResumptionCondition struct {
	Kind ResumptionConditionKind

	ResourceID     uint64   // ResumeResourceAvailable
	FuelAmount     uint64   // ResumeFuelRecovered
	DurationMs     uint32   // ResumeTimeElapsed
	EventID        uint64   // ResumeExternalEvent
	WaitableIDs    []uint64 // ComponentAsyncOperation task.wait's waitable set
}

// YieldPoint is a pausable snapshot of interpreter state, per section 3.6.
// After restoration the interpreter must observe exactly the state it held
// at save, modulo monotonic fuel counters.
type YieldPoint struct {
	InstructionPointer int
	Stack              []api.Value
	Locals             []api.Value
	CallStack          []savedFrame
	FuelAtYield        uint64
	YieldTimestamp     uint64
	Type               YieldType
	PreemptingTaskID   uint64 // valid only for YieldPreemption
	ASILReason         string // valid only for YieldASILCompliance
	ResumeResourceID   uint64 // valid only for YieldAsyncWait
	Condition          *ResumptionCondition
}

// savedFrame captures the minimum needed to reconstruct a StacklessFrame
// on resume without re-walking the module: which function, which module
// instance, the pc, locals, and block-context stack.
type savedFrame struct {
	ModuleInstance *ModuleInstance
	FuncIndex      uint32
	PC             int
	Locals         []api.Value
	Blocks         []BlockContext
}

// ExecutionContext is the per-task execution state held by the fuel
// executor's Task, per section 3.4: the current frame chain, stack depth,
// fuel counter, ASIL mode, and any saved yield point.
type ExecutionContext struct {
	Frames []*StacklessFrame
	Stack  []api.Value // operand stack, shared across the whole frame chain

	MaxStackDepth uint32
	ASILMode      ASILMode

	ContextFuelConsumed uint64
	LastYieldPoint      *YieldPoint

	CurrentFunctionIndex uint32
	WaitingForResource   *uint64

	// lastReturn carries a just-completed call's result values from
	// doReturn to the OutcomeReturn site in Step; it is never read by
	// anything but the step/branch pair in the same package.
	lastReturn []api.Value
}

// NewExecutionContext constructs an ExecutionContext for the given ASIL
// mode, deriving MaxStackDepth from the mode's level unless overridden.
func NewExecutionContext(mode ASILMode) *ExecutionContext {
	return &ExecutionContext{
		MaxStackDepth: MaxStackDepthFor(mode.Level),
		ASILMode:      mode,
	}
}

// CurrentFrame returns the innermost active frame, or nil if the call
// chain is empty (the task has completed).
func (ec *ExecutionContext) CurrentFrame() *StacklessFrame {
	if len(ec.Frames) == 0 {
		return nil
	}
	return ec.Frames[len(ec.Frames)-1]
}

// PushFrame pushes a new frame, returning a *StackDepthExceededError if
// doing so would exceed MaxStackDepth (section 3.4 invariant,
// ASIL-derived).
func (ec *ExecutionContext) PushFrame(f *StacklessFrame) error {
	if uint32(len(ec.Frames)) >= ec.MaxStackDepth {
		return &StackDepthExceededError{Max: ec.MaxStackDepth}
	}
	ec.Frames = append(ec.Frames, f)
	return nil
}

// PopFrame removes and returns the innermost frame.
func (ec *ExecutionContext) PopFrame() *StacklessFrame {
	n := len(ec.Frames)
	if n == 0 {
		return nil
	}
	f := ec.Frames[n-1]
	ec.Frames = ec.Frames[:n-1]
	return f
}

// StackDepthExceededError is returned when pushing a frame would exceed
// the ASIL-derived MaxStackDepth.
type StackDepthExceededError struct{ Max uint32 }

func (e *StackDepthExceededError) Error() string { return "stack depth limit exceeded" }

// pushValue/popValue manage the shared operand stack, mirroring the
// teacher's callEngine.pushValue/popValue (interpreter.go) except typed as
// api.Value rather than a raw uint64, since this core must preserve
// reference-type null-ness and exact float bit patterns across the stack.
func (ec *ExecutionContext) pushValue(v api.Value) { ec.Stack = append(ec.Stack, v) }

func (ec *ExecutionContext) popValue() api.Value {
	n := len(ec.Stack)
	v := ec.Stack[n-1]
	ec.Stack = ec.Stack[:n-1]
	return v
}

func (ec *ExecutionContext) popValues(n int) []api.Value {
	if n == 0 {
		return nil
	}
	start := len(ec.Stack) - n
	out := make([]api.Value, n)
	copy(out, ec.Stack[start:])
	ec.Stack = ec.Stack[:start]
	return out
}

// CreateYieldPoint snapshots the current frame chain and operand stack
// into a YieldPoint of the given type, recording fuel_at_yield and a
// deterministic timestamp (section 3.6). The deterministic timestamp is
// fuel consumed, not wall-clock time (section 9: "get_deterministic_
// timestamp returning context_fuel_consumed").
func (ec *ExecutionContext) CreateYieldPoint(yt YieldType) *YieldPoint {
	yp := &YieldPoint{
		FuelAtYield:    ec.ContextFuelConsumed,
		YieldTimestamp: ec.ContextFuelConsumed,
		Type:           yt,
		Stack:          append([]api.Value(nil), ec.Stack...),
	}
	if f := ec.CurrentFrame(); f != nil {
		yp.InstructionPointer = f.PC
		yp.Locals = append([]api.Value(nil), f.Locals...)
	}
	for _, f := range ec.Frames {
		yp.CallStack = append(yp.CallStack, savedFrame{
			ModuleInstance: f.Module,
			FuncIndex:      f.FuncIndex,
			PC:             f.PC,
			Locals:         append([]api.Value(nil), f.Locals...),
			Blocks:         append([]BlockContext(nil), f.Blocks...),
		})
	}
	ec.LastYieldPoint = yp
	return yp
}

// RestoreFromYieldPoint reconstructs the frame chain and operand stack
// exactly as CreateYieldPoint captured them (section 3.6 invariant: "after
// restoration, the interpreter must observe exactly the state it held at
// save, modulo monotonic fuel counters").
func (ec *ExecutionContext) RestoreFromYieldPoint(yp *YieldPoint) {
	ec.Stack = append([]api.Value(nil), yp.Stack...)
	ec.Frames = ec.Frames[:0]
	for _, sf := range yp.CallStack {
		f := &StacklessFrame{
			PC:        sf.PC,
			Locals:    append([]api.Value(nil), sf.Locals...),
			Module:    sf.ModuleInstance,
			FuncIndex: sf.FuncIndex,
			FuncType:  sf.ModuleInstance.Module.FuncTypeOf(sf.FuncIndex),
			Body:      sf.ModuleInstance.Module.Functions[sf.FuncIndex].Body,
			Blocks:    append([]BlockContext(nil), sf.Blocks...),
		}
		f.Arity = len(f.FuncType.Results)
		ec.Frames = append(ec.Frames, f)
	}
	ec.LastYieldPoint = nil
}

// CanResume evaluates whether cond currently holds. Time-based and
// external-event conditions are evaluated by the caller (the fuel
// executor, which owns the deterministic fuel clock and the event source)
// and passed in as alreadyTrue. Only ResumeFuelRecovered is evaluated
// directly here, against this context's own fuel counter; every other
// kind, ResumeResourceAvailable included, returns alreadyTrue.
func (ec *ExecutionContext) CanResume(cond *ResumptionCondition, alreadyTrue bool) bool {
	if cond == nil {
		return true
	}
	switch cond.Kind {
	case ResumeFuelRecovered:
		return ec.ContextFuelConsumed >= cond.FuelAmount
	case ResumeManual:
		return alreadyTrue
	default:
		return alreadyTrue
	}
}
