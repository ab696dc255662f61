// control.go - Process-wide stop flag and exit hooks
// ============================================================================
// PROCESS LIFECYCLE COORDINATION
// ============================================================================
//
// Go has no atexit. The control package is the thin replacement: components
// that must be torn down at process end register a hook with OnExit, and the
// program leaves through Exit (or a SIGINT/SIGTERM caught by HandleSignals),
// which runs every hook exactly once before the process terminates.
//
// Architecture overview:
//   • Global stop flag polled by long-running loops (Stopping)
//   • Exit hooks run newest-first, once, even under concurrent Exit calls
//   • Signal handler mirrors the explicit Exit path
//
// Threading model:
//   • OnExit and Exit are safe for concurrent use
//   • Hooks run on the goroutine that won the race to RunExitHooks

package control

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"concore/debug"
)

// ============================================================================
// GLOBAL STATE MANAGEMENT
// ============================================================================

var (
	// Shutdown signal: 1 = stop requested, 0 = running.
	stop uint32

	hooksMu sync.Mutex
	hooks   []func()
	ran     bool

	// exitFunc terminates the process; replaced in tests.
	exitFunc = os.Exit
)

// ============================================================================
// STOP FLAG
// ============================================================================

// Shutdown sets the global stop flag.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopping reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func Stopping() bool {
	return atomic.LoadUint32(&stop) != 0
}

// ============================================================================
// EXIT HOOKS
// ============================================================================

// OnExit registers fn to run at process end. Hooks registered after the
// hooks already ran are executed immediately so nothing is silently lost.
func OnExit(fn func()) {
	hooksMu.Lock()
	if ran {
		hooksMu.Unlock()
		debug.DropMessage("EXIT", "hook registered after teardown, running now")
		fn()
		return
	}
	hooks = append(hooks, fn)
	hooksMu.Unlock()
}

// RunExitHooks sets the stop flag and runs all registered hooks, newest
// first. Only the first call does any work; it reports whether it did.
func RunExitHooks() bool {
	hooksMu.Lock()
	if ran {
		hooksMu.Unlock()
		return false
	}
	ran = true
	pending := hooks
	hooks = nil
	hooksMu.Unlock()

	Shutdown()
	for i := len(pending) - 1; i >= 0; i-- {
		runHook(pending[i])
	}
	return true
}

// runHook isolates one hook's panic from the rest of the teardown.
func runHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			debug.DropMessage("EXIT", "hook panicked during teardown")
		}
	}()
	fn()
}

// Exit runs the exit hooks and terminates the process with code.
func Exit(code int) {
	RunExitHooks()
	exitFunc(code)
}

// ============================================================================
// SIGNAL HANDLING
// ============================================================================

// HandleSignals installs a background handler that turns SIGINT/SIGTERM
// into Exit(0). The returned function uninstalls it.
func HandleSignals() (stopHandling func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})

	go func() {
		select {
		case <-sigChan:
			debug.DropMessage("SIGNAL", "Received interrupt, shutting down...")
			Exit(0)
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(quit)
		})
	}
}
