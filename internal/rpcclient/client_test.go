package rpcclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/taskpb"
)

type fakeTaskClient struct {
	createResp *taskpb.CreateTaskResponse
	createErr  error

	pollResponses []*taskpb.PollTaskResponse
	pollErr       error
	pollCalls     int
}

func (f *fakeTaskClient) CreateTask(context.Context, *taskpb.CreateTaskRequest, ...grpc.CallOption) (*taskpb.CreateTaskResponse, error) {
	return f.createResp, f.createErr
}

func (f *fakeTaskClient) PollTask(context.Context, *taskpb.PollTaskRequest, ...grpc.CallOption) (*taskpb.PollTaskResponse, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	idx := f.pollCalls
	if idx >= len(f.pollResponses) {
		idx = len(f.pollResponses) - 1
	}
	f.pollCalls++
	return f.pollResponses[idx], nil
}

func fastPollConfig() PollConfig {
	return PollConfig{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3}
}

func TestSubmitReturnsTaskID(t *testing.T) {
	client := &fakeTaskClient{createResp: &taskpb.CreateTaskResponse{TaskID: "abc123"}}
	conn := &Connection{pollCfg: fastPollConfig(), client: client}

	submitted, err := conn.Submit(context.Background(), NewStagedTask("", []byte("1"), nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "abc123", submitted.TaskID)
}

func TestSubmitPropagatesError(t *testing.T) {
	client := &fakeTaskClient{createErr: assertErr("boom")}
	conn := &Connection{pollCfg: fastPollConfig(), client: client}

	_, err := conn.Submit(context.Background(), NewStagedTask("", []byte("1"), nil, nil, nil))
	assert.Error(t, err)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestResultSuccessAfterNotFoundThenFinished(t *testing.T) {
	client := &fakeTaskClient{
		pollResponses: []*taskpb.PollTaskResponse{
			{Found: false},
			{Found: true, TaskStatus: taskpb.TaskStatus_RUNNING},
			{Found: true, TaskStatus: taskpb.TaskStatus_FINISHED, ResultStatus: taskpb.ResultStatus_SUCCESS, Returned: []byte(`42`)},
		},
	}
	conn := &Connection{pollCfg: fastPollConfig(), client: client}
	submitted := &SubmittedTask{conn: conn, TaskID: "t1"}

	result, err := submitted.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result.Kind)
	assert.JSONEq(t, `42`, string(result.Value))
}

func TestResultUserError(t *testing.T) {
	client := &fakeTaskClient{
		pollResponses: []*taskpb.PollTaskResponse{
			{Found: true, TaskStatus: taskpb.TaskStatus_FINISHED, ResultStatus: taskpb.ResultStatus_USER_ERROR, ErrorMessage: "ZeroDivisionError"},
		},
	}
	conn := &Connection{pollCfg: fastPollConfig(), client: client}
	submitted := &SubmittedTask{conn: conn, TaskID: "t1"}

	result, err := submitted.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultUserError, result.Kind)
	assert.Equal(t, "ZeroDivisionError", result.Message)
	assert.True(t, result.IsError())
}

func TestResultTimesOutAfterMaxAttempts(t *testing.T) {
	client := &fakeTaskClient{
		pollResponses: []*taskpb.PollTaskResponse{
			{Found: true, TaskStatus: taskpb.TaskStatus_RUNNING},
		},
	}
	conn := &Connection{pollCfg: fastPollConfig(), client: client}
	submitted := &SubmittedTask{conn: conn, TaskID: "t1"}

	result, err := submitted.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultSystemError, result.Kind)
	assert.Contains(t, result.Message, "timed out after 3 attempts")
}

func TestSubmitAndWaitAllReturnsOneResultPerTask(t *testing.T) {
	client := &fakeTaskClient{
		createResp: &taskpb.CreateTaskResponse{TaskID: "t1"},
		pollResponses: []*taskpb.PollTaskResponse{
			{Found: true, TaskStatus: taskpb.TaskStatus_FINISHED, ResultStatus: taskpb.ResultStatus_SUCCESS, Returned: []byte(`1`)},
		},
	}
	conn := &Connection{pollCfg: fastPollConfig(), client: client}

	tasks := make([]StagedTask, 5)
	for i := range tasks {
		tasks[i] = NewStagedTask("", []byte("1"), nil, nil, &domain.RedundancyOptions{MinQuorum: 1, TargetNResults: 1, MaxErrorResults: 1, MaxTotalResults: 1, MaxSuccessResults: 1})
	}

	results, errs := conn.SubmitAndWaitAll(context.Background(), tasks)
	require.Len(t, results, 5)
	require.Len(t, errs, 5)
	for i := range results {
		assert.NoError(t, errs[i])
		assert.Equal(t, ResultSuccess, results[i].Kind)
	}
}
