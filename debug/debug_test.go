package debug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	restore := SetOutput(func(s string) { lines = append(lines, s) })
	t.Cleanup(restore)
	return &lines
}

func TestDropError(t *testing.T) {
	lines := capture(t)
	DropError("ALLOC", errors.New("munmap failed"))
	DropError("TRACE", nil)
	require.Equal(t, []string{"ALLOC: munmap failed\n", "TRACE\n"}, *lines)
}

func TestDropMessage(t *testing.T) {
	lines := capture(t)
	DropMessage("POOL", "worker 3 exited")
	require.Equal(t, []string{"POOL: worker 3 exited\n"}, *lines)
}

func TestSetOutputNilSilences(t *testing.T) {
	restore := SetOutput(nil)
	defer restore()
	DropMessage("X", "dropped") // must not panic
}
