package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/observability"
	"github.com/sermir2003/stoilo/internal/taskpb"
)

// maxMessageBytes matches the Gateway's 1 GiB ceiling (spec.md §6).
const maxMessageBytes = 1 << 30

// defaultMaxConcurrent bounds SubmitAndWaitAll's in-flight RPCs
// (spec.md §5: the client permits overlapping calls, but unbounded
// concurrency would just shift the bottleneck onto the Gateway's own
// worker pool).
const defaultMaxConcurrent = 32

// Connection is a lazily-dialed link to the Task Gateway. A single
// underlying grpc.ClientConn is opened on first use and reused for
// every subsequent call (spec.md §4.6).
type Connection struct {
	addr       string
	pollCfg    PollConfig
	rpcTimeout time.Duration

	mu     sync.Mutex
	cc     *grpc.ClientConn
	client taskpb.TaskServiceClient
}

// NewConnection constructs a Connection. Dialing is deferred until the
// first Submit or PollTask call.
func NewConnection(addr string, pollCfg PollConfig, rpcTimeout time.Duration) *Connection {
	return &Connection{addr: addr, pollCfg: pollCfg, rpcTimeout: rpcTimeout}
}

func (c *Connection) ensureClient() (taskpb.TaskServiceClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	cc, err := grpc.NewClient(c.addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageBytes),
			grpc.MaxCallSendMsgSize(maxMessageBytes),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("dial task gateway %s: %w", c.addr, err)
	}
	c.cc = cc
	c.client = taskpb.NewTaskServiceClient(cc)
	return c.client, nil
}

// Close releases the underlying gRPC connection, if one was opened.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Submit sends a StagedTask to CreateTask and returns the server's
// SubmittedTask handle (original_source's StagedTask.submit()).
func (c *Connection) Submit(ctx context.Context, t StagedTask) (*SubmittedTask, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if c.rpcTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.rpcTimeout)
		defer cancel()
	}
	callCtx = observability.InjectGRPCMetadata(callCtx)

	resp, err := client.CreateTask(callCtx, &taskpb.CreateTaskRequest{
		Flavor:           t.Flavor,
		CallSpec:         t.CallSpec,
		InitValidFunc:    t.InitValidFunc,
		CompareValidFunc: t.CompareValidFunc,
		Redundancy: &taskpb.RedundancyOptions{
			MinQuorum:         t.Redundancy.MinQuorum,
			TargetNresults:    t.Redundancy.TargetNResults,
			MaxErrorResults:   t.Redundancy.MaxErrorResults,
			MaxTotalResults:   t.Redundancy.MaxTotalResults,
			MaxSuccessResults: t.Redundancy.MaxSuccessResults,
			DelayBound:        t.Redundancy.DelayBound,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &SubmittedTask{conn: c, TaskID: resp.TaskID}, nil
}

// SubmitAndResult is the convenience path equivalent to
// original_source's StagedTask.result(): submit, then poll to
// completion.
func (c *Connection) SubmitAndResult(ctx context.Context, t StagedTask) (Result, error) {
	submitted, err := c.Submit(ctx, t)
	if err != nil {
		return Result{}, err
	}
	return submitted.Result(ctx)
}

// SubmitAndWaitAll submits and waits on every StagedTask concurrently,
// bounded at defaultMaxConcurrent in flight (SPEC_FULL §3.6). The
// returned slice preserves input order; a task that errors at either
// the submit or poll stage yields its error at the same index.
func (c *Connection) SubmitAndWaitAll(ctx context.Context, tasks []StagedTask) ([]Result, []error) {
	results := make([]Result, len(tasks))
	errs := make([]error, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultMaxConcurrent)

	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			result, err := c.SubmitAndResult(gctx, t)
			results[i] = result
			errs[i] = err
			return nil // collect per-task errors instead of aborting the group
		})
	}
	_ = g.Wait()
	return results, errs
}

// Result polls PollTask with bounded exponential backoff until the
// task is FINISHED or the backoff is exhausted (spec.md §4.6, P7).
func (s *SubmittedTask) Result(ctx context.Context) (Result, error) {
	backoff := NewBackoff(s.conn.pollCfg)
	req := &taskpb.PollTaskRequest{TaskID: s.TaskID}

	for !backoff.Done() {
		resp, err := s.poll(ctx, req)
		if err != nil {
			return Result{}, err
		}

		if !resp.Found {
			logging.Op().Warn("task not found on server, continuing to poll", "task_id", s.TaskID)
		} else if resp.TaskStatus == taskpb.TaskStatus_FINISHED {
			return resultFromResponse(resp), nil
		}

		delay := backoff.Next()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	return Result{
		Kind:    ResultSystemError,
		Message: fmt.Sprintf("Task polling timed out after %d attempts", backoff.Attempt()),
	}, nil
}

func (s *SubmittedTask) poll(ctx context.Context, req *taskpb.PollTaskRequest) (*taskpb.PollTaskResponse, error) {
	client, err := s.conn.ensureClient()
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if s.conn.rpcTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.conn.rpcTimeout)
		defer cancel()
	}
	callCtx = observability.InjectGRPCMetadata(callCtx)
	return client.PollTask(callCtx, req)
}

func resultFromResponse(resp *taskpb.PollTaskResponse) Result {
	switch resp.ResultStatus {
	case taskpb.ResultStatus_SUCCESS:
		return Result{Kind: ResultSuccess, Value: json.RawMessage(resp.Returned)}
	case taskpb.ResultStatus_USER_ERROR:
		return Result{Kind: ResultUserError, Message: resp.ErrorMessage}
	default:
		return Result{Kind: ResultSystemError, Message: resp.ErrorMessage}
	}
}
