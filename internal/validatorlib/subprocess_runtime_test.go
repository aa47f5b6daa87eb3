package validatorlib

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeInterpreter(t *testing.T, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "interp")
	script := "#!/bin/sh\nexit " + strconv.Itoa(exitCode) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestSubprocessRuntimeInitPredicateTrue(t *testing.T) {
	bin := writeFakeInterpreter(t, 0)
	rt := NewSubprocessRuntime(bin, t.TempDir())

	pred, err := rt.LoadInitPredicate([]byte("predicate-blob"))
	require.NoError(t, err)

	ok, err := pred.Evaluate([]byte(`{"x":1}`))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubprocessRuntimeInitPredicateFalse(t *testing.T) {
	bin := writeFakeInterpreter(t, 1)
	rt := NewSubprocessRuntime(bin, t.TempDir())

	pred, err := rt.LoadInitPredicate([]byte("predicate-blob"))
	require.NoError(t, err)

	ok, err := pred.Evaluate([]byte(`{"x":1}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubprocessRuntimeComparePredicateError(t *testing.T) {
	bin := writeFakeInterpreter(t, 2)
	rt := NewSubprocessRuntime(bin, t.TempDir())

	pred, err := rt.LoadComparePredicate([]byte("predicate-blob"))
	require.NoError(t, err)

	_, err = pred.Evaluate([]byte(`1`), []byte(`2`))
	assert.Error(t, err)
}
