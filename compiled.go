package corrmatch

import "github.com/soocke/corrmatch/bank"

// CompileUnrotatedConfig configures CompileUnrotated.
type CompileUnrotatedConfig = bank.CompileUnrotatedConfig

// CompileConfig configures CompileRotated.
type CompileConfig = bank.CompileConfig

// DefaultCompileConfig returns reasonable defaults for rotation-enabled
// compilation.
func DefaultCompileConfig() CompileConfig { return bank.DefaultCompileConfig() }

// CompiledTemplate is a Template's precomputed pyramid and, when compiled
// with rotation, its per-level angle grid of lazily materialized rotated
// plans.
type CompiledTemplate = bank.CompiledTemplate

// CompileUnrotated compiles tpl without rotation search support.
func CompileUnrotated(tpl Template, cfg CompileUnrotatedConfig) (*CompiledTemplate, error) {
	return bank.CompileUnrotated(tpl, cfg)
}

// CompileRotated compiles tpl with a per-level angle grid of lazily
// materialized rotated plans.
func CompileRotated(tpl Template, cfg CompileConfig) (*CompiledTemplate, error) {
	return bank.CompileRotated(tpl, cfg)
}
