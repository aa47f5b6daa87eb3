// Package store implements the Task Store contract (spec §4.1): durable
// state for every task, keyed by task_id, plus read-only indirection
// lookups into the VCH's own workunit/result tables. Grounded on
// nova's internal/store/postgres.go (pool construction, ensureSchema)
// and internal/store/functions.go (insert/select shape).
package store

import (
	"context"
	"errors"

	"github.com/sermir2003/stoilo/internal/domain"
)

// ErrDuplicateTask is returned by CreateTask when task_id already
// exists. Since the Gateway always generates a fresh UUID, this is
// evidence of corruption (spec §4.1), not a normal race to handle.
var ErrDuplicateTask = errors.New("store: duplicate task_id")

// ErrNotFound is returned by lookups that find no matching row.
var ErrNotFound = errors.New("store: not found")

// Store is the durable backing for the Task lifecycle. Every method is
// synchronous and transactional; mutations commit on success and roll
// back on any driver error, with the cursor/connection released on
// every exit path (spec §4.1).
type Store interface {
	// CreateTask inserts a new RUNNING task row with its three opaque
	// blobs. Returns ErrDuplicateTask if task_id already exists.
	CreateTask(ctx context.Context, taskID, flavor string, callSpec, initValidFunc, compareValidFunc []byte) error

	// SetTaskFailed performs the Gateway's compensating best-effort
	// transition to FINISHED/SYSTEM_ERROR when Work Launcher
	// registration fails after the row was inserted (spec §4.3 step 3).
	// It never returns an error to the caller beyond a log line: the
	// client already receives an RPC error through a separate path.
	SetTaskFailed(ctx context.Context, taskID, errorMessage string) bool

	// SetTaskFinished performs the single, monotonic RUNNING->FINISHED
	// transition (invariants I1-I4). Returns false if no row matches
	// task_id (the caller, e.g. the Assimilator, logs and exits
	// non-zero).
	SetTaskFinished(ctx context.Context, taskID string, resultStatus domain.ResultStatus, returned []byte, errorMessage string) (bool, error)

	// GetTaskStatus fetches the current row, or ErrNotFound.
	GetTaskStatus(ctx context.Context, taskID string) (*domain.Task, error)

	// GetTaskIDForWorkunit resolves a VCH workunit id to the task_id
	// that named it, via the VCH's own workunit.name column (spec
	// §3 I5, §6).
	GetTaskIDForWorkunit(ctx context.Context, wuID string) (string, error)

	// GetTaskIDForResult resolves a VCH result id to its task_id by
	// joining result.workunitid -> workunit.id -> workunit.name.
	GetTaskIDForResult(ctx context.Context, resultID string) (string, error)

	// GetValidationFunc fetches the init or compare predicate blob for
	// a task.
	GetValidationFunc(ctx context.Context, taskID string, mode domain.ValidationMode) ([]byte, error)

	Close() error
	Ping(ctx context.Context) error
}
