//go:build arm64 && !noasm

// relax_arm64.go
//
// Go declaration for Relax on arm64. relax_arm64.s emits YIELD, the arm64
// spin-wait hint.

package atomicx

// Relax executes the arm64 YIELD instruction.
//
//go:noescape
func Relax()
