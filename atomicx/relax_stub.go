//go:build (!amd64 && !arm64) || noasm

// relax_stub.go
//
// Portable fall-back for architectures without a spin-wait hint or when
// assembly stubs are disabled. Relax compiles to nothing.

package atomicx

// Relax is a no-op on unsupported targets.
//
//go:nosplit
//go:inline
func Relax() {}
