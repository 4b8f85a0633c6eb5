package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt/api"
)

func TestFunctionBody_ExpandedLocalTypes(t *testing.T) {
	b := FunctionBody{
		Locals: []Local{
			{Count: 2, Type: api.ValueTypeI32},
			{Count: 1, Type: api.ValueTypeF64},
		},
	}
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeF64}, b.ExpandedLocalTypes())
}

func TestFunctionBody_ExpandedLocalTypesEmpty(t *testing.T) {
	var b FunctionBody
	require.Empty(t, b.ExpandedLocalTypes())
}

func TestModule_FuncTypeOf(t *testing.T) {
	ft := FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI64}}
	m := &Module{Functions: []Function{{Type: ft}}}
	require.Equal(t, ft, m.FuncTypeOf(0))
}
