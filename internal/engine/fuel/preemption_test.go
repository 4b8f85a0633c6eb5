package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreemptionScheduler_SelectsHighestPriorityOutranking(t *testing.T) {
	running := &Task{Priority: 3, State: TaskStateRunning, FuelBudget: 10}
	low := &Task{Priority: 1, State: TaskStateReady, FuelBudget: 10}
	high := &Task{Priority: 5, State: TaskStateReady, FuelBudget: 10}

	var sched PreemptionScheduler
	got := sched.SelectPreemptor(running, []*Task{low, high, running})
	require.Same(t, high, got)
}

func TestPreemptionScheduler_NoneOutranksRunning(t *testing.T) {
	running := &Task{Priority: 5, State: TaskStateRunning, FuelBudget: 10}
	low := &Task{Priority: 1, State: TaskStateReady, FuelBudget: 10}

	var sched PreemptionScheduler
	got := sched.SelectPreemptor(running, []*Task{low, running})
	require.Nil(t, got)
}

func TestPreemptionScheduler_PicksAnyReadyWhenNothingRunning(t *testing.T) {
	high := &Task{Priority: 5, State: TaskStateReady, FuelBudget: 10}

	var sched PreemptionScheduler
	got := sched.SelectPreemptor(nil, []*Task{high})
	require.Same(t, high, got)
}

func TestInheritPriority_RaisesHolderToWaiterLevel(t *testing.T) {
	holder := &Task{Priority: 1}
	waiter := &Task{Priority: 9}
	require.True(t, InheritPriority(holder, waiter))
	require.Equal(t, uint8(9), holder.Priority)
}

func TestInheritPriority_NoOpWhenHolderAlreadyHigher(t *testing.T) {
	holder := &Task{Priority: 9}
	waiter := &Task{Priority: 1}
	require.False(t, InheritPriority(holder, waiter))
	require.Equal(t, uint8(9), holder.Priority)
}

func TestOrderByPriority_SortsDescending(t *testing.T) {
	a := &Task{Priority: 1}
	b := &Task{Priority: 9}
	c := &Task{Priority: 5}
	out := OrderByPriority([]*Task{a, b, c})
	require.Equal(t, []uint8{9, 5, 1}, []uint8{out[0].Priority, out[1].Priority, out[2].Priority})
}
