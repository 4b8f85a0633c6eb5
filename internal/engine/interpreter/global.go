package interpreter

import "github.com/pulseengine/wrt/api"

// Global is a ModuleInstance's mutable or immutable runtime global.
type Global struct {
	Type    api.ValueType
	Mutable bool
	Value   api.Value
}
