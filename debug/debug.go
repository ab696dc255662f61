// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go - Cold-path diagnostic logging
//
// Purpose:
//   - Reports chunk release failures, task panics, teardown ordering and
//     post-teardown singleton access.
//   - One line per event on stderr, "<prefix>: <message>".
//
// Notes:
//   - Avoids fmt to keep the footprint flat.
//   - Output can be redirected for tests through SetOutput.
//
// ⚠️ Never invoke inside CAS retry loops or worker hot paths.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"sync"

	"concore/utils"
)

var (
	mu   sync.Mutex
	sink = utils.PrintWarning
)

// SetOutput replaces the line sink and returns a function restoring the
// previous one. A nil fn silences all diagnostics.
func SetOutput(fn func(string)) (restore func()) {
	mu.Lock()
	prev := sink
	if fn == nil {
		fn = func(string) {}
	}
	sink = fn
	mu.Unlock()
	return func() {
		mu.Lock()
		sink = prev
		mu.Unlock()
	}
}

func emit(msg string) {
	mu.Lock()
	out := sink
	mu.Unlock()
	out(msg)
}

// DropError logs an error under prefix. A nil err logs just the prefix,
// which doubles as a cheap trace tag.
func DropError(prefix string, err error) {
	if err != nil {
		emit(prefix + ": " + err.Error() + "\n")
		return
	}
	emit(prefix + "\n")
}

// DropMessage logs a diagnostic message under prefix.
func DropMessage(prefix, message string) {
	emit(prefix + ": " + message + "\n")
}
