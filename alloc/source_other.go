//go:build !unix

package alloc

// DefaultSource returns the source used by allocators built without an
// explicit one: the Go heap on platforms without anonymous mmap support.
func DefaultSource() Source { return HeapSource{} }
