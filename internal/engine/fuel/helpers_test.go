package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/engine/interpreter"
	"github.com/pulseengine/wrt/internal/wasm"
)

// noopContext builds an ExecutionContext with a single frame whose entire
// body is an immediate return, so one Step call always drives it to
// completion — enough to exercise the executor's lifecycle transitions
// without needing a real computation.
func noopContext(t *testing.T) *interpreter.ExecutionContext {
	t.Helper()
	ft := wasm.FuncType{}
	m := &wasm.Module{
		Types: []wasm.FuncType{ft},
		Functions: []wasm.Function{{
			Kind: api.FunctionKindLocal,
			Type: ft,
			Body: &wasm.FunctionBody{Instructions: []wasm.Instruction{{Op: wasm.OpEnd}}},
		}},
	}
	inst := interpreter.NewModuleInstance(m, nil)
	ec := interpreter.NewExecutionContext(interpreter.DefaultASILMode())
	f, err := interpreter.NewStacklessFrame(inst, 0, nil, interpreter.MaxLocals)
	require.NoError(t, err)
	require.NoError(t, ec.PushFrame(f))
	return ec
}
