package assimilatorlib

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/metrics"
	"github.com/sermir2003/stoilo/internal/resultcodec"
	"github.com/sermir2003/stoilo/internal/store"
)

// Assimilator records the terminal outcome of a finished work unit
// into the Store. It never retries (spec.md §4.4): any failure exits
// non-zero and lets the VCH reschedule invocation.
type Assimilator struct {
	store   store.Store
	metrics *metrics.Metrics // nil disables the tasks_finished_total counter
	callLog *logging.Logger
}

// New constructs an Assimilator. m may be nil; the Assimilator is a
// one-shot CLI with no scrape endpoint, so the caller is responsible for
// pushing m to a Pushgateway after Run returns (SPEC_FULL §2.4).
func New(s store.Store, m *metrics.Metrics) *Assimilator {
	return &Assimilator{store: s, metrics: m, callLog: logging.Default()}
}

// Run resolves task_id from the workunit and records its outcome,
// returning the process exit code the caller should exit with (0 on
// success, non-zero otherwise — spec.md §4.4 does not define an
// exit-code taxonomy as granular as the Validator's).
func (a *Assimilator) Run(ctx context.Context, args Args) int {
	start := time.Now()

	var (
		method  string
		wuID    string
		success bool
	)
	switch {
	case args.Success != nil:
		method = "success"
		wuID = args.Success.WorkunitID
		success = a.runSuccess(ctx, args.Success)
	case args.Error != nil:
		method = "error"
		wuID = args.Error.WorkunitID
		success = a.runError(ctx, args.Error)
	default:
		return 1
	}

	a.callLog.Log(&logging.CallLog{
		Component:  "assimilator",
		Method:     method,
		TaskID:     wuID,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    success,
	})
	if success {
		return 0
	}
	return 1
}

func (a *Assimilator) runSuccess(ctx context.Context, args *SuccessArgs) bool {
	taskID, err := a.store.GetTaskIDForWorkunit(ctx, args.WorkunitID)
	if err != nil {
		logging.Op().Error("failed to resolve task_id for workunit", "wu_id", args.WorkunitID, "error", err)
		return false
	}

	data, err := os.ReadFile(args.ResultFile)
	if err != nil {
		logging.Op().Error("failed to load result file", "file", args.ResultFile, "error", err)
		return false
	}
	status, payload, err := resultcodec.Decode(data)
	if err != nil {
		logging.Op().Error("failed to decode result file", "file", args.ResultFile, "error", err)
		return false
	}

	var ok bool
	if status == domain.ResultStatusSuccess {
		ok, err = a.store.SetTaskFinished(ctx, taskID, status, payload, "")
	} else {
		ok, err = a.store.SetTaskFinished(ctx, taskID, status, nil, string(payload))
	}
	if err != nil {
		logging.Op().Error("failed to set task finished", "task_id", taskID, "error", err)
		return false
	}
	if !ok {
		logging.Op().Error("task not transitioned to FINISHED (no matching RUNNING row)", "task_id", taskID)
		return false
	}
	if a.metrics != nil {
		a.metrics.RecordTaskFinished(status.String())
	}
	return true
}

func (a *Assimilator) runError(ctx context.Context, args *ErrorArgs) bool {
	taskID, err := a.store.GetTaskIDForWorkunit(ctx, args.WorkunitID)
	if err != nil {
		logging.Op().Error("failed to resolve task_id for workunit", "wu_id", args.WorkunitID, "error", err)
		return false
	}

	msg := fmt.Sprintf("VCH error code: %d, see WU_ERROR_* in common_defs", args.ErrorCode)
	ok, err := a.store.SetTaskFinished(ctx, taskID, domain.ResultStatusSystemError, nil, msg)
	if err != nil {
		logging.Op().Error("failed to set task finished", "task_id", taskID, "error", err)
		return false
	}
	if !ok {
		logging.Op().Error("task not transitioned to FINISHED (no matching RUNNING row)", "task_id", taskID, "message", msg)
		return false
	}
	if a.metrics != nil {
		a.metrics.RecordTaskFinished(domain.ResultStatusSystemError.String())
	}
	return true
}
