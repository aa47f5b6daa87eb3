// Package assimilatorlib implements the Assimilator CLI's decision
// logic (spec.md §4.4), grounded on original_source's
// raboshka_assimilator/cli_parser.py and assimilator.py.
package assimilatorlib

import (
	"fmt"
	"strconv"
)

// SuccessArgs is the `<wu_id> <result_file>` shape.
type SuccessArgs struct {
	WorkunitID string
	ResultFile string
}

// ErrorArgs is the `--error <error_code> <wu_name> <wu_id> <runtime>`
// shape the VCH uses to report a workunit-level failure.
type ErrorArgs struct {
	ErrorCode int
	WorkunitName string
	WorkunitID   string
}

// Args is the mutually exclusive result of ParseArgs.
type Args struct {
	Success *SuccessArgs
	Error   *ErrorArgs
}

// ParseArgs parses the Assimilator's two argument shapes (spec.md §6).
func ParseArgs(args []string) (Args, error) {
	if len(args) == 0 {
		return Args{}, fmt.Errorf("assimilator: no arguments provided")
	}

	if args[0] == "--error" {
		if len(args) != 5 {
			return Args{}, fmt.Errorf(
				"assimilator: error variant requires exactly 4 arguments: --error <error_code> <wu_name> <wu_id> <runtime>, got %d",
				len(args)-1)
		}
		code, err := strconv.Atoi(args[1])
		if err != nil {
			return Args{}, fmt.Errorf("assimilator: error_code must be an integer: %w", err)
		}
		return Args{Error: &ErrorArgs{
			ErrorCode:    code,
			WorkunitName: args[2],
			WorkunitID:   args[3],
		}}, nil
	}

	if len(args) != 2 {
		return Args{}, fmt.Errorf("assimilator: success variant requires exactly 2 arguments: wu_id and result_file, got %d", len(args))
	}
	return Args{Success: &SuccessArgs{WorkunitID: args[0], ResultFile: args[1]}}, nil
}
