// Package worklauncher implements the Work Launcher (spec.md §4.2):
// given a task_id, flavor, call_spec blob and redundancy options,
// stage the call_spec file for the VCH and register a workunit against
// it by invoking the VCH's own `bin/stage_file` and `bin/create_work`
// tools as subprocesses. Grounded on original_source's
// raboshka_work_generator/work_creator.py, with the subprocess
// invocation/error-capture idiom from nova's internal/executor.
package worklauncher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/logging"
)

// Launcher stages call_spec files and registers BOINC-style workunits
// under projectDir, a VCH project tree containing bin/stage_file and
// bin/create_work.
type Launcher struct {
	projectDir string
	tmpDir     string
	manifest   *Manifest
}

// New constructs a Launcher. tmpDir holds staged call_spec files before
// bin/stage_file picks them up; it defaults to os.TempDir() when empty.
func New(projectDir, tmpDir string, manifest *Manifest) *Launcher {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if manifest == nil {
		manifest = DefaultManifest()
	}
	return &Launcher{projectDir: projectDir, tmpDir: tmpDir, manifest: manifest}
}

// CreateWork stages callSpec on disk and registers a workunit named
// taskID with the given redundancy options (spec.md §4.2 step-by-step).
// A failure at either subprocess step is returned unwrapped from the
// Gateway's perspective so it can trigger the set_task_failed
// compensation path (spec.md §4.3 step 3).
func (l *Launcher) CreateWork(ctx context.Context, taskID, flavor string, callSpec []byte, opts domain.RedundancyOptions) error {
	callSpecFileName := fmt.Sprintf("wu_%s_call_spec", taskID)
	callSpecPath := filepath.Join(l.tmpDir, callSpecFileName)

	if err := os.WriteFile(callSpecPath, callSpec, 0o644); err != nil {
		return fmt.Errorf("write call_spec file: %w", err)
	}

	if err := l.runSubprocess(ctx, "failed to stage file",
		filepath.Join(l.projectDir, "bin", "stage_file"), callSpecPath); err != nil {
		return err
	}

	tmpl := l.manifest.Resolve(flavor)
	args := []string{
		"--appname", tmpl.AppName(flavor),
		"--min_quorum", strconv.Itoa(int(opts.MinQuorum)),
		"--target_nresults", strconv.Itoa(int(opts.TargetNResults)),
		"--max_error_results", strconv.Itoa(int(opts.MaxErrorResults)),
		"--max_total_results", strconv.Itoa(int(opts.MaxTotalResults)),
		"--max_success_results", strconv.Itoa(int(opts.MaxSuccessResults)),
		"--delay_bound", strconv.Itoa(int(opts.DelayBound)),
		"--wu_name", taskID,
		"--wu_template", tmpl.WorkunitTemplate(),
		"--result_template", tmpl.ResultTemplate(),
		callSpecFileName,
	}
	if err := l.runSubprocess(ctx, "failed to create BOINC work",
		filepath.Join(l.projectDir, "bin", "create_work"), args...); err != nil {
		return err
	}
	return nil
}

func (l *Launcher) runSubprocess(ctx context.Context, errPrefix, name string, args ...string) error {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = l.projectDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Op().Debug("running work launcher subprocess", "command", name, "args", args)
	err := cmd.Run()
	logging.Op().Debug("work launcher subprocess finished", "command", name, "duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("%s: exit %d: stdout: %s stderr: %s", errPrefix, exitErr.ExitCode(), stdout.String(), stderr.String())
		}
		return fmt.Errorf("%s: %w", errPrefix, err)
	}
	return nil
}
