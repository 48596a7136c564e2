// File: cmd/spindle/main_test.go
package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Setup Helpers ---

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

// panicking runs handlePanic the way main defers it.
func panicking(v any) {
	defer handlePanic()
	panic(v)
}

func TestHandlePanic(t *testing.T) {
	t.Cleanup(resetMocks)

	t.Run("writes the panic and exits non-zero", func(t *testing.T) {
		var written []byte
		var name string
		osWriteFile = func(n string, data []byte, _ os.FileMode) error {
			name, written = n, data
			return nil
		}
		code := -1
		osExit = func(c int) { code = c }

		panicking("boom")

		assert.Equal(t, panicLogFile, name)
		assert.Contains(t, string(written), "panic: boom")
		assert.Contains(t, string(written), "goroutine", "the stack is included")
		assert.Equal(t, 2, code)
	})

	t.Run("still exits when the log cannot be written", func(t *testing.T) {
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
		code := -1
		osExit = func(c int) { code = c }

		require.NotPanics(t, func() { panicking("boom") })
		assert.Equal(t, 2, code)
	})

	t.Run("does nothing without a panic", func(t *testing.T) {
		osExit = func(int) { t.Fatal("exit called without a panic") }
		func() {
			defer handlePanic()
		}()
	})
}
