package rpcclient

import (
	"encoding/json"
	"fmt"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/redundancy"
)

// ResultKind tags a Result as the canonical value, a user-attributed
// failure, or a system-attributed failure — the Go shape of
// original_source's TaskResult = Union[Any, UserError, SystemError].
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultUserError
	ResultSystemError
)

// Result is the outcome of SubmittedTask.Result. Value is populated
// only when Kind == ResultSuccess; Message only for the two error
// kinds.
type Result struct {
	Kind    ResultKind
	Value   json.RawMessage
	Message string
}

// Error renders the two failure kinds the way original_source's
// UserError/SystemError exceptions stringify. Returns "" for
// ResultSuccess.
func (r Result) Error() string {
	switch r.Kind {
	case ResultUserError:
		return fmt.Sprintf("stoilo user error: %s", r.Message)
	case ResultSystemError:
		return fmt.Sprintf("stoilo system error: %s", r.Message)
	default:
		return ""
	}
}

// IsError reports whether this Result carries a user or system error
// rather than a canonical value.
func (r Result) IsError() bool {
	return r.Kind != ResultSuccess
}

// StagedTask is a call not yet sent: the three opaque blobs and the
// redundancy policy, staged client-side so submit() and result() can
// be called independently (original_source's StagedTask/SubmittedTask
// split, SPEC_FULL §4). The broker never inspects CallSpec,
// InitValidFunc or CompareValidFunc; producing them is the caller's
// responsibility, delegated to a co-deployed script runtime per
// spec.md §9.
type StagedTask struct {
	Flavor           string
	CallSpec         []byte
	InitValidFunc    []byte
	CompareValidFunc []byte
	Redundancy       domain.RedundancyOptions
}

// DefaultFlavor matches original_source's stoilo.low_level.flavors.DEFAULT.
const DefaultFlavor = "default"

// NewStagedTask builds a StagedTask, applying original_source's
// defaults: DefaultFlavor and CLASSIC redundancy when unset.
func NewStagedTask(flavor string, callSpec, initValidFunc, compareValidFunc []byte, opts *domain.RedundancyOptions) StagedTask {
	if flavor == "" {
		flavor = DefaultFlavor
	}
	var red domain.RedundancyOptions
	if opts != nil {
		red = *opts
	} else {
		red = redundancy.Classic()
	}
	return StagedTask{
		Flavor:           flavor,
		CallSpec:         callSpec,
		InitValidFunc:    initValidFunc,
		CompareValidFunc: compareValidFunc,
		Redundancy:       red,
	}
}

// SubmittedTask is a call the server has acknowledged: only task_id
// survives past submit(), matching original_source's SubmittedTask.
type SubmittedTask struct {
	conn   *Connection
	TaskID string
}
