package validatorlib

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/resultcodec"
	"github.com/sermir2003/stoilo/internal/store"
)

type fakeStore struct {
	taskIDByResult map[string]string
	initFunc       []byte
	compareFunc    []byte
}

func (f *fakeStore) CreateTask(context.Context, string, string, []byte, []byte, []byte) error {
	return nil
}
func (f *fakeStore) SetTaskFailed(context.Context, string, string) bool { return false }
func (f *fakeStore) SetTaskFinished(context.Context, string, domain.ResultStatus, []byte, string) (bool, error) {
	return false, nil
}
func (f *fakeStore) GetTaskStatus(context.Context, string) (*domain.Task, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) GetTaskIDForWorkunit(context.Context, string) (string, error) {
	return "", store.ErrNotFound
}
func (f *fakeStore) GetTaskIDForResult(_ context.Context, resultID string) (string, error) {
	taskID, ok := f.taskIDByResult[resultID]
	if !ok {
		return "", store.ErrNotFound
	}
	return taskID, nil
}
func (f *fakeStore) GetValidationFunc(_ context.Context, _ string, mode domain.ValidationMode) ([]byte, error) {
	if mode == domain.ValidationModeInit {
		return f.initFunc, nil
	}
	return f.compareFunc, nil
}
func (f *fakeStore) Close() error               { return nil }
func (f *fakeStore) Ping(context.Context) error { return nil }

type boolPredicate struct {
	result bool
	err    error
}

func (p boolPredicate) Evaluate(json.RawMessage) (bool, error) { return p.result, p.err }

type boolComparePredicate struct {
	result bool
	err    error
}

func (p boolComparePredicate) Evaluate(_, _ json.RawMessage) (bool, error) { return p.result, p.err }

type fakeRuntime struct {
	initPredicate    InitPredicate
	initErr          error
	comparePredicate ComparePredicate
	compareErr       error
}

func (r *fakeRuntime) LoadInitPredicate([]byte) (InitPredicate, error) {
	return r.initPredicate, r.initErr
}
func (r *fakeRuntime) LoadComparePredicate([]byte) (ComparePredicate, error) {
	return r.comparePredicate, r.compareErr
}

func writeResultFile(t *testing.T, dir, name string, status domain.ResultStatus, payload []byte) string {
	t.Helper()
	data, err := resultcodec.Encode(status, payload)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParseArgsInit(t *testing.T) {
	args, err := ParseArgs([]string{"--init", "r1", "f1"})
	require.NoError(t, err)
	require.NotNil(t, args.Init)
	assert.Equal(t, "r1", args.Init.ResultID)
	assert.Equal(t, "f1", args.Init.FilePath)
}

func TestParseArgsCompare(t *testing.T) {
	args, err := ParseArgs([]string{"--compare", "r1", "f1", "r2", "f2"})
	require.NoError(t, err)
	require.NotNil(t, args.Compare)
	assert.Equal(t, "r2", args.Compare.ResultID2)
}

func TestParseArgsRejectsWrongArity(t *testing.T) {
	_, err := ParseArgs([]string{"--init", "r1"})
	assert.Error(t, err)
}

func TestParseArgsRejectsUnknownFlag(t *testing.T) {
	_, err := ParseArgs([]string{"--bogus"})
	assert.Error(t, err)
}

func TestInitialValidationAccepted(t *testing.T) {
	dir := t.TempDir()
	path := writeResultFile(t, dir, "r1", domain.ResultStatusSuccess, []byte(`42`))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	rt := &fakeRuntime{initPredicate: boolPredicate{result: true}}
	v := New(s, rt)

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "r1", FilePath: path}})
	assert.Equal(t, ExitAccepted, code)
}

func TestInitialValidationRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeResultFile(t, dir, "r1", domain.ResultStatusSuccess, []byte(`42`))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	rt := &fakeRuntime{initPredicate: boolPredicate{result: false}}
	v := New(s, rt)

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "r1", FilePath: path}})
	assert.Equal(t, ExitRejected, code)
}

func TestInitialValidationUserErrorAccepted(t *testing.T) {
	dir := t.TempDir()
	path := writeResultFile(t, dir, "r1", domain.ResultStatusUserError, []byte("boom"))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	rt := &fakeRuntime{initPredicate: boolPredicate{result: true}}
	v := New(s, rt)

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "r1", FilePath: path}})
	assert.Equal(t, ExitAccepted, code)
}

func TestInitialValidationSystemErrorRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeResultFile(t, dir, "r1", domain.ResultStatusSystemError, []byte("boom"))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	rt := &fakeRuntime{initPredicate: boolPredicate{result: true}}
	v := New(s, rt)

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "r1", FilePath: path}})
	assert.Equal(t, ExitRejected, code)
}

func TestInitialValidationPredicateErrorIsValidFuncError(t *testing.T) {
	dir := t.TempDir()
	path := writeResultFile(t, dir, "r1", domain.ResultStatusSuccess, []byte(`42`))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	rt := &fakeRuntime{initPredicate: boolPredicate{err: assertErr("boom")}}
	v := New(s, rt)

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "r1", FilePath: path}})
	assert.Equal(t, ExitValidFuncError, code)
}

func TestInitialValidationUnresolvableResultIsOtherError(t *testing.T) {
	s := &fakeStore{taskIDByResult: map[string]string{}}
	v := New(s, &fakeRuntime{})

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "missing", FilePath: "/nonexistent"}})
	assert.Equal(t, ExitOtherError, code)
}

func TestInitialValidationCorruptResultFileIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(path, []byte("garbage not a digit"), 0o644))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	v := New(s, &fakeRuntime{initPredicate: boolPredicate{result: true}})

	code := v.Run(context.Background(), Args{Init: &InitArgs{ResultID: "r1", FilePath: path}})
	assert.Equal(t, ExitRejected, code)
}

func TestComparativeValidationBothUserErrorAccepted(t *testing.T) {
	dir := t.TempDir()
	p1 := writeResultFile(t, dir, "r1", domain.ResultStatusUserError, []byte("e1"))
	p2 := writeResultFile(t, dir, "r2", domain.ResultStatusUserError, []byte("e2"))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	v := New(s, &fakeRuntime{comparePredicate: boolComparePredicate{result: false}})

	code := v.Run(context.Background(), Args{Compare: &CompareArgs{ResultID1: "r1", FilePath1: p1, ResultID2: "r2", FilePath2: p2}})
	assert.Equal(t, ExitAccepted, code)
}

func TestComparativeValidationOneUserErrorRejected(t *testing.T) {
	dir := t.TempDir()
	p1 := writeResultFile(t, dir, "r1", domain.ResultStatusUserError, []byte("e1"))
	p2 := writeResultFile(t, dir, "r2", domain.ResultStatusSuccess, []byte(`1`))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	v := New(s, &fakeRuntime{comparePredicate: boolComparePredicate{result: true}})

	code := v.Run(context.Background(), Args{Compare: &CompareArgs{ResultID1: "r1", FilePath1: p1, ResultID2: "r2", FilePath2: p2}})
	assert.Equal(t, ExitRejected, code)
}

func TestComparativeValidationEqualAccepted(t *testing.T) {
	dir := t.TempDir()
	p1 := writeResultFile(t, dir, "r1", domain.ResultStatusSuccess, []byte(`1`))
	p2 := writeResultFile(t, dir, "r2", domain.ResultStatusSuccess, []byte(`1`))

	s := &fakeStore{taskIDByResult: map[string]string{"r1": "t1"}}
	v := New(s, &fakeRuntime{comparePredicate: boolComparePredicate{result: true}})

	code := v.Run(context.Background(), Args{Compare: &CompareArgs{ResultID1: "r1", FilePath1: p1, ResultID2: "r2", FilePath2: p2}})
	assert.Equal(t, ExitAccepted, code)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
