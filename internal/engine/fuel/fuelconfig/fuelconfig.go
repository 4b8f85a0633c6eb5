// Package fuelconfig binds FuelAsyncExecutor configuration to command-line
// flags via github.com/spf13/pflag, per SPEC_FULL.md section 2's
// domain-stack wiring: an embedding binary wants to tune fuel budgets and
// ASIL level from its own flag set without internal/engine/fuel needing
// to know anything about flag parsing.
package fuelconfig

import (
	"github.com/spf13/pflag"

	"github.com/pulseengine/wrt/internal/engine/fuel"
	"github.com/pulseengine/wrt/internal/engine/interpreter"
)

// Flags holds the raw flag-bound values before Build converts them into
// a fuel.Config.
type Flags struct {
	ASILLevel     string
	MaxDebt       uint64
	HighRateAlert uint64
	NearExhaust   uint64
}

// RegisterFlags binds f's fields to fs under the "fuel." prefix.
func RegisterFlags(fs *pflag.FlagSet, f *Flags) {
	fs.StringVar(&f.ASILLevel, "fuel.asil-level", "A", "Default ASIL level for spawned tasks (A, B, C, or D).")
	fs.Uint64Var(&f.MaxDebt, "fuel.max-debt", 1_000_000, "Maximum fuel debt a task may accrue before being denied.")
	fs.Uint64Var(&f.HighRateAlert, "fuel.high-rate-alert", 10_000, "Fuel consumption rate threshold that raises an alert.")
	fs.Uint64Var(&f.NearExhaust, "fuel.near-exhaust-percent", 90, "Budget usage percentage that raises a near-exhaustion alert.")
}

// Build converts parsed Flags into a fuel.Config.
func Build(f Flags) fuel.Config {
	cfg := fuel.NewConfig()
	cfg.MaxDebt = f.MaxDebt
	cfg.HighRateAlert = f.HighRateAlert
	cfg.NearExhaustPercent = f.NearExhaust
	cfg.DefaultMode = modeForLevel(f.ASILLevel)
	cfg.Policy = fuel.DebtPolicy{Inner: fuel.DefaultASILPolicy{}, MaxDebt: f.MaxDebt}
	return cfg
}

func modeForLevel(level string) interpreter.ASILMode {
	mode := interpreter.DefaultASILMode()
	switch level {
	case "B", "b":
		mode.Level = interpreter.ASILLevelB
		mode.StrictResourceLimits = true
	case "C", "c":
		mode.Level = interpreter.ASILLevelC
		mode.SpatialIsolation = true
		mode.TemporalIsolation = true
		mode.ResourceIsolation = true
	case "D", "d":
		mode.Level = interpreter.ASILLevelD
		mode.DeterministicExecution = true
		mode.BoundedExecutionTime = true
		mode.FormalVerification = true
	default:
		mode.Level = interpreter.ASILLevelA
		mode.ErrorDetection = true
	}
	return mode
}
