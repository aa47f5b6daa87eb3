package validatorlib

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// SubprocessRuntime delegates predicate deserialization and evaluation
// to an external interpreter binary, keeping this package itself free
// of any script-language runtime (spec.md §9: "the core broker never
// inspects payloads... only the worker and validator runtimes need to
// share an interpreter"). The binary contract mirrors the Validator's
// own exit-code discipline: 0 means the predicate returned true, 1
// means false, anything else is an evaluation error.
type SubprocessRuntime struct {
	binPath string
	tmpDir  string
}

// NewSubprocessRuntime constructs a Runtime that execs binPath for
// every predicate evaluation. binPath is a co-deployed interpreter
// matching the call_spec/predicate blob's serialisation format; this
// package has no opinion on what that format is.
func NewSubprocessRuntime(binPath, tmpDir string) *SubprocessRuntime {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &SubprocessRuntime{binPath: binPath, tmpDir: tmpDir}
}

func (r *SubprocessRuntime) LoadInitPredicate(blob []byte) (InitPredicate, error) {
	return &subprocessInitPredicate{runtime: r, blob: blob}, nil
}

func (r *SubprocessRuntime) LoadComparePredicate(blob []byte) (ComparePredicate, error) {
	return &subprocessComparePredicate{runtime: r, blob: blob}, nil
}

type subprocessInitPredicate struct {
	runtime *SubprocessRuntime
	blob    []byte
}

func (p *subprocessInitPredicate) Evaluate(result json.RawMessage) (bool, error) {
	return p.runtime.invoke("init", p.blob, result, nil)
}

type subprocessComparePredicate struct {
	runtime *SubprocessRuntime
	blob    []byte
}

func (p *subprocessComparePredicate) Evaluate(a, b json.RawMessage) (bool, error) {
	return p.runtime.invoke("compare", p.blob, a, b)
}

// invoke writes the predicate blob and one or two payloads to scratch
// files and execs the interpreter: <bin> <mode> <predicate_file>
// <payload_file> [<payload_file_2>].
func (r *SubprocessRuntime) invoke(mode string, blob []byte, payload1, payload2 json.RawMessage) (bool, error) {
	dir, err := os.MkdirTemp(r.tmpDir, "stoilo-predicate-*")
	if err != nil {
		return false, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	predicatePath := filepath.Join(dir, "predicate")
	if err := os.WriteFile(predicatePath, blob, 0o600); err != nil {
		return false, fmt.Errorf("write predicate blob: %w", err)
	}

	payload1Path := filepath.Join(dir, "payload1")
	if err := os.WriteFile(payload1Path, payload1, 0o600); err != nil {
		return false, fmt.Errorf("write payload: %w", err)
	}
	args := []string{mode, predicatePath, payload1Path}

	if payload2 != nil {
		payload2Path := filepath.Join(dir, "payload2")
		if err := os.WriteFile(payload2Path, payload2, 0o600); err != nil {
			return false, fmt.Errorf("write payload: %w", err)
		}
		args = append(args, payload2Path)
	}

	cmd := exec.CommandContext(context.Background(), r.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("predicate runtime error: %w (stderr: %s)", err, stderr.String())
}
