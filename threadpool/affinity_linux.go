//go:build linux

// affinity_linux.go
//
// Pins the calling OS thread to one logical CPU through
// sched_setaffinity(2). The caller must hold runtime.LockOSThread,
// otherwise the goroutine may migrate to an unpinned thread.
//
// Failure is not fatal: under a restrictive cpuset or cgroup the call
// returns EINVAL/EPERM and the worker simply runs unpinned.

package threadpool

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to cpu.
func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
