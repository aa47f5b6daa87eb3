package taskpb

// RedundancyOptions is the wire shape of spec §6's RedundancyOptions
// message.
type RedundancyOptions struct {
	MinQuorum         int32 `json:"min_quorum"`
	TargetNresults    int32 `json:"target_nresults"`
	MaxErrorResults   int32 `json:"max_error_results"`
	MaxTotalResults   int32 `json:"max_total_results"`
	MaxSuccessResults int32 `json:"max_success_results"`
	DelayBound        int32 `json:"delay_bound"`
}

// CreateTaskRequest is the CreateTask RPC request (spec §6). Fields can
// be up to ~1 GiB; both client and server are configured with matching
// message-size limits (SPEC_FULL §3.3).
type CreateTaskRequest struct {
	Flavor           string             `json:"flavor"`
	CallSpec         []byte             `json:"call_spec"`
	InitValidFunc    []byte             `json:"init_valid_func"`
	CompareValidFunc []byte             `json:"compare_valid_func"`
	Redundancy       *RedundancyOptions `json:"redundancy"`
}

// CreateTaskResponse is the CreateTask RPC response.
type CreateTaskResponse struct {
	TaskID string `json:"task_id"`
}

// PollTaskRequest is the PollTask RPC request.
type PollTaskRequest struct {
	TaskID string `json:"task_id"`
}

// PollTaskResponse is the PollTask RPC response. Found == false means
// "not yet visible", not a transport error (spec §4.3).
type PollTaskResponse struct {
	Found        bool         `json:"found"`
	TaskStatus   TaskStatus   `json:"task_status"`
	ResultStatus ResultStatus `json:"result_status"`
	Returned     []byte       `json:"returned"`
	ErrorMessage string       `json:"error_message"`
}
