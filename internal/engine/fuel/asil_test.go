package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt/internal/engine/interpreter"
)

func TestDefaultASILPolicy_GraduatedResponses(t *testing.T) {
	var p DefaultASILPolicy
	task := &Task{}

	require.Equal(t, DecisionDeny, p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelD}, task))
	require.Equal(t, DecisionRequireYield, p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelC}, task))
	require.Equal(t, DecisionAllowWithWarning, p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelA}, task))

	require.Equal(t, DecisionAllowWithRollover,
		p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelB, StrictResourceLimits: true}, task))
	require.Equal(t, DecisionDeny,
		p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelB, StrictResourceLimits: false}, task))
}

func TestDebtPolicy_DefersToInnerWhenNotDeny(t *testing.T) {
	p := DebtPolicy{Inner: DefaultASILPolicy{}, MaxDebt: 10}
	task := &Task{}
	require.Equal(t, DecisionAllowWithWarning,
		p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelA}, task))
}

func TestDebtPolicy_AllowsDebtUpToMaxThenDenies(t *testing.T) {
	p := DebtPolicy{Inner: DefaultASILPolicy{}, MaxDebt: 10}
	mode := interpreter.ASILMode{Level: interpreter.ASILLevelB}

	task := &Task{FuelDebt: 5}
	require.Equal(t, DecisionAllowWithDebt, p.OnExhausted(mode, task))

	task.FuelDebt = 10
	require.Equal(t, DecisionDeny, p.OnExhausted(mode, task))
}

func TestDebtPolicy_NeverOffersDebtAboveASILB(t *testing.T) {
	p := DebtPolicy{Inner: DefaultASILPolicy{}, MaxDebt: 1_000_000}
	task := &Task{}
	require.Equal(t, DecisionDeny, p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelD}, task))
	require.Equal(t, DecisionRequireYield, p.OnExhausted(interpreter.ASILMode{Level: interpreter.ASILLevelC}, task))
}
