package worklauncher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sermir2003/stoilo/internal/domain"
)

// writeFakeBinary drops an executable shell script at projectDir/bin/name
// so CreateWork's two subprocess steps can be exercised without a real
// BOINC project tree.
func writeFakeBinary(t *testing.T, projectDir, name, body string) {
	t.Helper()
	binDir := filepath.Join(projectDir, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	path := filepath.Join(binDir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func TestCreateWorkSuccess(t *testing.T) {
	projectDir := t.TempDir()
	tmpDir := t.TempDir()

	writeFakeBinary(t, projectDir, "stage_file", "exit 0\n")
	writeFakeBinary(t, projectDir, "create_work", "exit 0\n")

	l := New(projectDir, tmpDir, DefaultManifest())
	opts := domain.RedundancyOptions{
		MinQuorum: 2, TargetNResults: 2, MaxErrorResults: 1,
		MaxTotalResults: 3, MaxSuccessResults: 3, DelayBound: 300,
	}

	err := l.CreateWork(context.Background(), "abc123", "gravity", []byte("payload"), opts)
	require.NoError(t, err)

	staged, err := os.ReadFile(filepath.Join(tmpDir, "wu_abc123_call_spec"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(staged))
}

func TestCreateWorkStageFileFailure(t *testing.T) {
	projectDir := t.TempDir()
	tmpDir := t.TempDir()

	writeFakeBinary(t, projectDir, "stage_file", "echo boom >&2; exit 1\n")
	writeFakeBinary(t, projectDir, "create_work", "exit 0\n")

	l := New(projectDir, tmpDir, DefaultManifest())
	opts := domain.RedundancyOptions{MinQuorum: 2, TargetNResults: 2, MaxErrorResults: 1, MaxTotalResults: 3, MaxSuccessResults: 3, DelayBound: 300}

	err := l.CreateWork(context.Background(), "abc123", "gravity", []byte("payload"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stage file")
	assert.Contains(t, err.Error(), "boom")
}

func TestCreateWorkStageFileFailureIncludesStdout(t *testing.T) {
	projectDir := t.TempDir()
	tmpDir := t.TempDir()

	writeFakeBinary(t, projectDir, "stage_file", "echo diagnostic-output; exit 1\n")
	writeFakeBinary(t, projectDir, "create_work", "exit 0\n")

	l := New(projectDir, tmpDir, DefaultManifest())
	opts := domain.RedundancyOptions{MinQuorum: 2, TargetNResults: 2, MaxErrorResults: 1, MaxTotalResults: 3, MaxSuccessResults: 3, DelayBound: 300}

	err := l.CreateWork(context.Background(), "abc123", "gravity", []byte("payload"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stage file")
	assert.Contains(t, err.Error(), "diagnostic-output")
}

func TestCreateWorkCreateWorkFailure(t *testing.T) {
	projectDir := t.TempDir()
	tmpDir := t.TempDir()

	writeFakeBinary(t, projectDir, "stage_file", "exit 0\n")
	writeFakeBinary(t, projectDir, "create_work", "echo bad args >&2; exit 3\n")

	l := New(projectDir, tmpDir, DefaultManifest())
	opts := domain.RedundancyOptions{MinQuorum: 2, TargetNResults: 2, MaxErrorResults: 1, MaxTotalResults: 3, MaxSuccessResults: 3, DelayBound: 300}

	err := l.CreateWork(context.Background(), "abc123", "gravity", []byte("payload"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create BOINC work")
	assert.Contains(t, err.Error(), "exit 3")
}
