//go:build !linux

// affinity_stub.go
//
// Thread pinning is unavailable; workers run wherever the scheduler puts
// them.

package threadpool

func setAffinity(int) error { return nil }
