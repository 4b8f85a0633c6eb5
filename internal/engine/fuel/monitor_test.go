package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type captureSink struct{ alerts []FuelAlert }

func (c *captureSink) Observe(a FuelAlert) { c.alerts = append(c.alerts, a) }

func TestFuelMonitor_RaisesAndDedupsAlert(t *testing.T) {
	sink := &captureSink{}
	m := NewFuelMonitor(5, 90, sink)
	task := &Task{ID: NewTaskID(1), FuelBudget: 100}

	m.Record(task, 1, 10) // span 0 -> rate == total == 10 > 5, raises
	m.Record(task, 2, 10) // rate 20/1 == 20, still high, already active: no dup
	require.Len(t, sink.alerts, 1)
	require.Equal(t, AlertHighConsumptionRate, sink.alerts[0].Kind)
}

func TestFuelMonitor_ClearsAndReraisesOnNewTransition(t *testing.T) {
	sink := &captureSink{}
	m := NewFuelMonitor(5, 90, sink)
	task := &Task{ID: NewTaskID(1), FuelBudget: 100}

	m.Record(task, 1, 10) // rate 10 > 5 -> alert #1
	m.Record(task, 2, 0)  // rate 10/1 == 10, still high, no new alert
	m.Record(task, 3, 0)  // rate 10/2 == 5, not > 5 -> clears
	m.Record(task, 4, 10) // rate 20/3 == 6 > 5 -> alert #2
	require.Len(t, sink.alerts, 2)
}

func TestFuelMonitor_NearExhaustionAlert(t *testing.T) {
	sink := &captureSink{}
	m := NewFuelMonitor(1_000_000, 90, sink)
	task := &Task{ID: NewTaskID(1), FuelBudget: 100, FuelConsumed: 95}

	m.Record(task, 1, 1)
	require.Len(t, sink.alerts, 1)
	require.Equal(t, AlertBudgetNearExhaustion, sink.alerts[0].Kind)
}

func TestFuelMonitor_DebtGrowingAlert(t *testing.T) {
	sink := &captureSink{}
	m := NewFuelMonitor(1_000_000, 100, sink)
	task := &Task{ID: NewTaskID(1), FuelBudget: 100, FuelDebt: 1}

	m.Record(task, 1, 1)
	require.Len(t, sink.alerts, 1)
	require.Equal(t, AlertDebtGrowing, sink.alerts[0].Kind)
}

func TestFuelMonitor_NilSinkDiscardsWithoutPanic(t *testing.T) {
	m := NewFuelMonitor(5, 90, nil)
	task := &Task{ID: NewTaskID(1), FuelBudget: 100}
	require.NotPanics(t, func() { m.Record(task, 1, 10) })
}
