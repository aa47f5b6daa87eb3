package validatorlib

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/resultcodec"
	"github.com/sermir2003/stoilo/internal/store"
)

// ExitCode is the Validator's process exit status. The VCH's scripted
// validator contract reads these bit-exact (spec.md §4.5); see
// https://github.com/BOINC/boinc/wiki/Validators-in-scripting-languages.
type ExitCode int

const (
	ExitAccepted       ExitCode = 0
	ExitRejected       ExitCode = 1
	ExitOtherError     ExitCode = 2
	ExitTempError      ExitCode = 3
	ExitValidFuncError ExitCode = 4
)

// InitArgs is the --init <result_id> <file> argument shape.
type InitArgs struct {
	ResultID string
	FilePath string
}

// CompareArgs is the --compare <rid1> <f1> <rid2> <f2> argument shape.
type CompareArgs struct {
	ResultID1 string
	FilePath1 string
	ResultID2 string
	FilePath2 string
}

// Args is the mutually exclusive result of ParseArgs: exactly one of
// Init or Compare is non-nil.
type Args struct {
	Init    *InitArgs
	Compare *CompareArgs
}

// ParseArgs parses the Validator's two argument shapes, matching
// original_source's argparse mutually-exclusive-group contract:
// "--init RESULT_ID FILE" or "--compare RID1 F1 RID2 F2".
func ParseArgs(args []string) (Args, error) {
	if len(args) == 0 {
		return Args{}, fmt.Errorf("validator: one of --init or --compare is required")
	}
	switch args[0] {
	case "--init":
		if len(args) != 3 {
			return Args{}, fmt.Errorf("validator: --init takes exactly 2 arguments (result_id, file), got %d", len(args)-1)
		}
		return Args{Init: &InitArgs{ResultID: args[1], FilePath: args[2]}}, nil
	case "--compare":
		if len(args) != 5 {
			return Args{}, fmt.Errorf("validator: --compare takes exactly 4 arguments (result_id_1, file_1, result_id_2, file_2), got %d", len(args)-1)
		}
		return Args{Compare: &CompareArgs{
			ResultID1: args[1], FilePath1: args[2],
			ResultID2: args[3], FilePath2: args[4],
		}}, nil
	default:
		return Args{}, fmt.Errorf("validator: unrecognized flag %q, expected --init or --compare", args[0])
	}
}

// Validator runs the VCH-invoked decision logic against a Store and a
// Runtime for opaque predicate evaluation.
type Validator struct {
	store   store.Store
	runtime Runtime
	callLog *logging.Logger
}

// New constructs a Validator.
func New(s store.Store, r Runtime) *Validator {
	return &Validator{store: s, runtime: r, callLog: logging.Default()}
}

// Run dispatches to initial or comparative validation and returns the
// process exit code the caller (cmd/validator) should exit with. Run
// never panics: every internal failure maps to OTHER_ERROR, mirroring
// the original's blanket `except Exception` around main().
func (v *Validator) Run(ctx context.Context, args Args) (code ExitCode) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.Op().Error("validator panicked", "panic", r)
			code = ExitOtherError
		}
	}()

	var method string
	switch {
	case args.Init != nil:
		method = "init"
		code = v.runInitial(ctx, args.Init)
	case args.Compare != nil:
		method = "compare"
		code = v.runComparative(ctx, args.Compare)
	default:
		return ExitOtherError
	}

	v.callLog.Log(&logging.CallLog{
		Component:  "validator",
		Method:     method,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    code == ExitAccepted || code == ExitRejected,
		ExitCode:   int(code),
	})
	return code
}

func (v *Validator) runInitial(ctx context.Context, a *InitArgs) ExitCode {
	taskID, err := v.store.GetTaskIDForResult(ctx, a.ResultID)
	if err != nil {
		logging.Op().Error("failed to resolve task_id for result", "result_id", a.ResultID, "error", err)
		return ExitOtherError
	}

	predicate, exit, ok := v.loadInitPredicate(ctx, taskID)
	if !ok {
		return exit
	}

	status, payload, err := v.readResultFile(a.FilePath)
	if err != nil {
		logging.Op().Error("failed to load result file (possible attack)", "file", a.FilePath, "error", err)
		return ExitRejected
	}

	switch status {
	case domain.ResultStatusUserError:
		logging.Op().Info("initial validation: USER_ERROR, accepted", "result_id", a.ResultID, "task_id", taskID)
		return ExitAccepted
	case domain.ResultStatusSystemError:
		logging.Op().Info("initial validation: SYSTEM_ERROR, rejected", "result_id", a.ResultID, "task_id", taskID)
		return ExitRejected
	}

	valid, err := predicate.Evaluate(payload)
	if err != nil {
		logging.Op().Info("error during initial validation function", "error", err)
		return ExitValidFuncError
	}
	if valid {
		return ExitAccepted
	}
	return ExitRejected
}

func (v *Validator) runComparative(ctx context.Context, a *CompareArgs) ExitCode {
	taskID, err := v.store.GetTaskIDForResult(ctx, a.ResultID1)
	if err != nil {
		logging.Op().Error("failed to resolve task_id for result", "result_id", a.ResultID1, "error", err)
		return ExitOtherError
	}

	predicate, exit, ok := v.loadComparePredicate(ctx, taskID)
	if !ok {
		return exit
	}

	status1, payload1, err := v.readResultFile(a.FilePath1)
	if err != nil {
		logging.Op().Error("failed to load result file (possible attack)", "file", a.FilePath1, "error", err)
		return ExitRejected
	}
	status2, payload2, err := v.readResultFile(a.FilePath2)
	if err != nil {
		logging.Op().Error("failed to load result file (possible attack)", "file", a.FilePath2, "error", err)
		return ExitRejected
	}

	bothUserError := status1 == domain.ResultStatusUserError && status2 == domain.ResultStatusUserError
	oneUserError := status1 == domain.ResultStatusUserError || status2 == domain.ResultStatusUserError
	switch {
	case bothUserError:
		logging.Op().Info("comparative validation: both USER_ERROR, considered equal")
		return ExitAccepted
	case oneUserError:
		logging.Op().Info("comparative validation: exactly one USER_ERROR, considered different")
		return ExitRejected
	}

	equal, err := predicate.Evaluate(payload1, payload2)
	if err != nil {
		logging.Op().Info("error during comparative validation function", "error", err)
		return ExitValidFuncError
	}
	if equal {
		return ExitAccepted
	}
	return ExitRejected
}

func (v *Validator) loadInitPredicate(ctx context.Context, taskID string) (InitPredicate, ExitCode, bool) {
	blob, err := v.store.GetValidationFunc(ctx, taskID, domain.ValidationModeInit)
	if err != nil {
		logging.Op().Error("failed to fetch init_valid_func", "task_id", taskID, "error", err)
		return nil, ExitOtherError, false
	}
	predicate, err := v.runtime.LoadInitPredicate(blob)
	if err != nil {
		logging.Op().Error("failed to deserialize init predicate", "task_id", taskID, "error", err)
		return nil, ExitValidFuncError, false
	}
	return predicate, 0, true
}

func (v *Validator) loadComparePredicate(ctx context.Context, taskID string) (ComparePredicate, ExitCode, bool) {
	blob, err := v.store.GetValidationFunc(ctx, taskID, domain.ValidationModeCompare)
	if err != nil {
		logging.Op().Error("failed to fetch compare_valid_func", "task_id", taskID, "error", err)
		return nil, ExitOtherError, false
	}
	predicate, err := v.runtime.LoadComparePredicate(blob)
	if err != nil {
		logging.Op().Error("failed to deserialize compare predicate", "task_id", taskID, "error", err)
		return nil, ExitValidFuncError, false
	}
	return predicate, 0, true
}

// readResultFile parses a worker result file via the result codec (spec
// §4.8): status digit + raw payload. For SUCCESS the payload must also
// be valid JSON, since the predicate evaluates a parsed value, not raw
// bytes.
func (v *Validator) readResultFile(path string) (domain.ResultStatus, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read result file: %w", err)
	}
	status, payload, err := resultcodec.Decode(data)
	if err != nil {
		return 0, nil, err
	}
	if status == domain.ResultStatusSuccess && !json.Valid(payload) {
		return 0, nil, fmt.Errorf("success payload is not valid JSON")
	}
	return status, payload, nil
}
