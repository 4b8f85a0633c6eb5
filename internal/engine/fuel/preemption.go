package fuel

import "sort"

// PreemptionScheduler picks which ready task, if any, should preempt a
// running one, and applies priority inheritance when a high-priority task
// is blocked waiting on a resource a lower-priority task holds — grounded
// on original_source/wrt-component/.../fuel_async_executor.rs's
// priority-inheritance handling for ASIL-D's bounded-execution-time
// guarantee (a low-priority task must not be able to starve a
// high-priority one indefinitely by holding a resource).
type PreemptionScheduler struct{}

// SelectPreemptor returns the highest-priority ready task that is not
// already running, or nil if none outranks the currently running task.
func (PreemptionScheduler) SelectPreemptor(running *Task, ready []*Task) *Task {
	var best *Task
	for _, t := range ready {
		if t == running || !t.IsRunnable() {
			continue
		}
		if best == nil || t.Priority > best.Priority {
			best = t
		}
	}
	if best != nil && running != nil && best.Priority > running.Priority {
		return best
	}
	if best != nil && running == nil {
		return best
	}
	return nil
}

// InheritPriority raises holder's effective priority to at least waiter's,
// so a high-priority task blocked on a resource a low-priority task holds
// cannot be starved by an unrelated medium-priority task preempting the
// holder first (classic priority-inversion avoidance). Returns whether an
// adjustment was made.
func InheritPriority(holder, waiter *Task) bool {
	if waiter.Priority > holder.Priority {
		holder.Priority = waiter.Priority
		return true
	}
	return false
}

// OrderByPriority returns tasks sorted by descending priority, then
// ascending task id, the deterministic order section 5 requires at every
// ready-queue pop ("priority descending, then task id ascending") so two
// runs with equal-priority tasks produce identical completion order.
func OrderByPriority(tasks []*Task) []*Task {
	out := append([]*Task(nil), tasks...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID.Numeric < out[j].ID.Numeric
	})
	return out
}
