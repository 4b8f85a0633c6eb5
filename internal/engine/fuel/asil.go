package fuel

import "github.com/pulseengine/wrt/internal/engine/interpreter"

// Decision is what the ASIL enforcement policy tells the executor to do
// about a task that has run out of its allotted fuel slice, per
// original_source/wrt-component/src/async_/fuel_async_executor.rs's
// FuelEnforcementResult and section 3.5/9's ASIL-graduated responses.
type Decision byte

const (
	// DecisionAllow lets the task keep running with no adjustment —
	// never valid once a task's fuel is truly exhausted, only used when
	// the caller is asking "may this task start" rather than "what do I
	// do now that it's out of fuel".
	DecisionAllow Decision = iota
	// DecisionDeny refuses to let the task continue; it moves to
	// TaskStateFuelExhausted. DefaultASILPolicy returns it for ASIL-D on
	// any fuel-exhaustion event, since a fuel violation under formal
	// verification is itself a certifiable failure, not something to
	// paper over, and for ASIL-B without StrictResourceLimits.
	DecisionDeny
	// DecisionAllowWithWarning lets the task continue (ASIL-A: error
	// detection without enforcement); the executor takes no other action
	// for it.
	DecisionAllowWithWarning
	// DecisionAllowWithTransfer lets the task continue. No policy in this
	// package returns it, and the executor handles it exactly like
	// DecisionAllowWithWarning: no fuel is moved between tasks.
	DecisionAllowWithTransfer
	// DecisionAllowWithRollover extends the task's budget by one fuel unit
	// (and the executor's reserved pool with it); nothing is deducted from
	// a later allocation.
	DecisionAllowWithRollover
	// DecisionAllowWithDebt lets the task continue by borrowing against
	// its future fuel allocation, tracked as FuelDebt and charged
	// interest by debtcredit.go.
	DecisionAllowWithDebt
	// DecisionRequireYield forces the task to yield back to the
	// scheduler instead of failing outright, so it can be resumed once
	// fuel is replenished (DefaultASILPolicy uses it for ASIL-C).
	DecisionRequireYield
)

// FuelAllocationPolicy decides what happens when a task's fuel budget is
// exhausted, parameterized by ASIL level so callers can swap in a
// certification-specific policy without touching the executor loop
// itself (original_source's "pluggable FuelAllocationPolicy", section 3
// item 7 of SPEC_FULL.md).
type FuelAllocationPolicy interface {
	OnExhausted(mode interpreter.ASILMode, t *Task) Decision
}

// DefaultASILPolicy implements the ASIL-graduated response table named in
// original_source: ASIL-D denies outright (bounded execution time is a
// hard certification requirement, no negotiation); ASIL-C requires an
// explicit yield so its temporal-isolation guarantee holds; ASIL-B allows
// a rollover on every exhaustion if StrictResourceLimits is set, else
// denies;
// ASIL-A allows with a warning, since ASIL-A only asks for error
// detection, not enforcement.
type DefaultASILPolicy struct{}

func (DefaultASILPolicy) OnExhausted(mode interpreter.ASILMode, t *Task) Decision {
	switch mode.Level {
	case interpreter.ASILLevelD:
		return DecisionDeny
	case interpreter.ASILLevelC:
		return DecisionRequireYield
	case interpreter.ASILLevelB:
		if mode.StrictResourceLimits {
			return DecisionAllowWithRollover
		}
		return DecisionDeny
	default: // ASIL-A
		return DecisionAllowWithWarning
	}
}

// DebtPolicy wraps another policy, converting any DecisionDeny for ASIL-A
// or ASIL-B tasks into DecisionAllowWithDebt up to MaxDebt, deferring the
// failure instead of applying it immediately — the debt/credit scheme
// debtcredit.go enforces by charging interest on the deferred amount.
type DebtPolicy struct {
	Inner   FuelAllocationPolicy
	MaxDebt uint64
}

func (p DebtPolicy) OnExhausted(mode interpreter.ASILMode, t *Task) Decision {
	d := p.Inner.OnExhausted(mode, t)
	if d != DecisionDeny {
		return d
	}
	if mode.Level == interpreter.ASILLevelA || mode.Level == interpreter.ASILLevelB {
		if t.FuelDebt < p.MaxDebt {
			return DecisionAllowWithDebt
		}
	}
	return DecisionDeny
}
