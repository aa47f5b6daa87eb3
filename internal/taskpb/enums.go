// Package taskpb defines the Task Gateway's wire messages (spec §6).
// The pack this repo was built from did not include nova's generated
// api/proto/novapb package, and this exercise never invokes protoc, so
// these are hand-authored structs carried over gRPC through the JSON
// codec registered in codec.go (see SPEC_FULL.md §3.3) rather than
// protoc-gen-go output. The enum shape below (typed int32 + name map)
// matches what protoc-gen-go would have produced.
package taskpb

// TaskStatus mirrors domain.TaskStatus; kept as a separate wire type so
// the gRPC contract does not depend on the internal domain package.
type TaskStatus int32

const (
	TaskStatus_UNSPECIFIED TaskStatus = 0
	TaskStatus_RUNNING     TaskStatus = 1
	TaskStatus_FINISHED    TaskStatus = 2
)

var taskStatusName = map[TaskStatus]string{
	TaskStatus_UNSPECIFIED: "UNSPECIFIED",
	TaskStatus_RUNNING:     "RUNNING",
	TaskStatus_FINISHED:    "FINISHED",
}

func (s TaskStatus) String() string {
	if n, ok := taskStatusName[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// ResultStatus mirrors domain.ResultStatus. Values MUST match the
// result-file status digit (spec §4.8, §6).
type ResultStatus int32

const (
	ResultStatus_SUCCESS      ResultStatus = 0
	ResultStatus_USER_ERROR   ResultStatus = 1
	ResultStatus_SYSTEM_ERROR ResultStatus = 2
)

var resultStatusName = map[ResultStatus]string{
	ResultStatus_SUCCESS:      "SUCCESS",
	ResultStatus_USER_ERROR:   "USER_ERROR",
	ResultStatus_SYSTEM_ERROR: "SYSTEM_ERROR",
}

func (s ResultStatus) String() string {
	if n, ok := resultStatusName[s]; ok {
		return n
	}
	return "UNKNOWN"
}
