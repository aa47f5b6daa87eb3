// Package domain holds the types shared by every stoilo component: the
// Task record, its status enums, and the redundancy parameters handed to
// the volunteer compute host.
package domain

import "fmt"

// TaskStatus is the coarse lifecycle state of a Task.
type TaskStatus int32

const (
	TaskStatusUnspecified TaskStatus = 0
	TaskStatusRunning     TaskStatus = 1
	TaskStatusFinished    TaskStatus = 2
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusRunning:
		return "RUNNING"
	case TaskStatusFinished:
		return "FINISHED"
	default:
		return "UNSPECIFIED"
	}
}

// ResultStatus classifies a finished Task. The integer values are
// contractual: they match the leading status digit of the worker result
// file (spec §4.8) byte for byte.
type ResultStatus int32

const (
	ResultStatusSuccess     ResultStatus = 0
	ResultStatusUserError   ResultStatus = 1
	ResultStatusSystemError ResultStatus = 2
)

func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "SUCCESS"
	case ResultStatusUserError:
		return "USER_ERROR"
	case ResultStatusSystemError:
		return "SYSTEM_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
}

// ValidResultStatus reports whether v is one of the three defined
// ResultStatus values. Anything else read off disk or out of the
// database is corruption, never a fourth legitimate state.
func ValidResultStatus(v int32) bool {
	switch ResultStatus(v) {
	case ResultStatusSuccess, ResultStatusUserError, ResultStatusSystemError:
		return true
	default:
		return false
	}
}

// Task is the durable record for one submitted call. See spec §3 for the
// field-level invariants (I1-I5); the Store is the only component
// permitted to mutate one.
type Task struct {
	TaskID            string
	Flavor            string
	CallSpec          []byte
	InitValidFunc     []byte
	CompareValidFunc  []byte
	TaskStatus        TaskStatus
	ResultStatus      ResultStatus
	ResultStatusValid bool // false until TaskStatus == Finished
	Returned          []byte
	ErrorMessage      string
}

// RedundancyOptions carries the VCH replication parameters that the
// Redundancy Policy (package redundancy) fills in from a partial spec.
// It is never persisted independently of the work unit it created.
type RedundancyOptions struct {
	MinQuorum         int32
	TargetNResults    int32
	MaxErrorResults   int32
	MaxTotalResults   int32
	MaxSuccessResults int32
	DelayBound        int32 // seconds
}

// ValidationMode selects which predicate blob get_validation_func
// fetches for a task.
type ValidationMode string

const (
	ValidationModeInit    ValidationMode = "init"
	ValidationModeCompare ValidationMode = "compare"
)
