// Package gateway implements the Task Gateway (spec.md §4.3): the gRPC
// service bridging RPC Client submissions to the Store and Work
// Launcher. Grounded on nova's internal/grpc.Server (listener setup,
// interceptor wiring, Start/Stop shape).
package gateway

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sermir2003/stoilo/internal/domain"
	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/metrics"
	"github.com/sermir2003/stoilo/internal/pollcache"
	"github.com/sermir2003/stoilo/internal/redundancy"
	"github.com/sermir2003/stoilo/internal/store"
	"github.com/sermir2003/stoilo/internal/taskpb"
)

// maxMessageBytes is the 1 GiB ceiling spec.md §6 requires for both
// send and receive, to admit the heaviest call_spec/predicate blobs.
const maxMessageBytes = 1 << 30

// workLauncher is the subset of worklauncher.Launcher the Gateway
// depends on, kept as an interface so tests can substitute a fake
// without spawning real subprocesses.
type workLauncher interface {
	CreateWork(ctx context.Context, taskID, flavor string, callSpec []byte, opts domain.RedundancyOptions) error
}

// Server implements taskpb.TaskServiceServer.
type Server struct {
	store    store.Store
	launcher workLauncher
	metrics  *metrics.Metrics
	cache    *pollcache.Cache // nil disables the read-through cache
	callLog  *logging.Logger
	server   *grpc.Server
}

// New constructs a Server. cache may be nil (SPEC_FULL §3.4: disabled
// when STOILO_REDIS_ADDR is unset).
func New(s store.Store, l workLauncher, m *metrics.Metrics, cache *pollcache.Cache) *Server {
	return &Server{
		store:    s,
		launcher: l,
		metrics:  m,
		cache:    cache,
		callLog:  logging.Default(),
	}
}

// Start binds addr and serves the Task Gateway in the background.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.server = grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMessageBytes),
		grpc.MaxSendMsgSize(maxMessageBytes),
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor,
			tracingInterceptor,
			loggingInterceptor,
			metricsInterceptor(s.metrics),
		),
	)
	taskpb.RegisterTaskServiceServer(s.server, s)

	logging.Op().Info("task gateway listening", "addr", addr)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			logging.Op().Error("gRPC server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully drains in-flight RPCs before returning.
func (s *Server) Stop() {
	if s.server != nil {
		s.server.GracefulStop()
	}
}

// CreateTask implements the strictly ordered insert -> launch ->
// (optional) mark-failed algorithm of spec.md §4.3.
func (s *Server) CreateTask(ctx context.Context, req *taskpb.CreateTaskRequest) (*taskpb.CreateTaskResponse, error) {
	start := time.Now()
	taskID := newTaskID()

	opts, err := redundancyFromWire(req.Redundancy)
	if err != nil {
		s.logCall("CreateTask", taskID, start, false, err.Error())
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.store.CreateTask(ctx, taskID, req.Flavor, req.CallSpec, req.InitValidFunc, req.CompareValidFunc); err != nil {
		s.logCall("CreateTask", taskID, start, false, err.Error())
		if s.metrics != nil {
			s.metrics.ObserveCreateTask(time.Since(start).Seconds(), false)
		}
		return nil, status.Errorf(codes.Internal, "create task: %v", err)
	}

	launchStart := time.Now()
	launchErr := s.launcher.CreateWork(ctx, taskID, req.Flavor, req.CallSpec, opts)
	if s.metrics != nil {
		s.metrics.ObserveWorkLaunch(time.Since(launchStart).Seconds(), launchErr)
	}
	if launchErr != nil {
		// Best-effort compensation (spec.md §4.3 step 3): the client
		// already learns of the failure through the RPC error, so a
		// failure here only affects whether a stray Poll converges.
		s.store.SetTaskFailed(ctx, taskID, launchErr.Error())
		s.logCall("CreateTask", taskID, start, false, launchErr.Error())
		if s.metrics != nil {
			s.metrics.ObserveCreateTask(time.Since(start).Seconds(), false)
		}
		return nil, status.Errorf(codes.Internal, "launch work unit: %v", launchErr)
	}

	if s.metrics != nil {
		s.metrics.ObserveCreateTask(time.Since(start).Seconds(), true)
	}
	s.logCall("CreateTask", taskID, start, true, "")
	return &taskpb.CreateTaskResponse{TaskID: taskID}, nil
}

// PollTask is a pure read: Store.GetTaskStatus, substituting
// found=false rather than an RPC error when the row does not exist
// (spec.md §4.3).
func (s *Server) PollTask(ctx context.Context, req *taskpb.PollTaskRequest) (*taskpb.PollTaskResponse, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObservePollTask(time.Since(start).Seconds())
		}
	}()

	if cached := s.cache.Get(ctx, req.TaskID); cached != nil {
		s.logCall("PollTask", req.TaskID, start, true, "")
		return pollResponseFromTask(cached, true), nil
	}

	task, err := s.store.GetTaskStatus(ctx, req.TaskID)
	if err == store.ErrNotFound {
		s.logCall("PollTask", req.TaskID, start, true, "")
		return &taskpb.PollTaskResponse{Found: false}, nil
	}
	if err != nil {
		s.logCall("PollTask", req.TaskID, start, false, err.Error())
		return nil, status.Errorf(codes.Internal, "poll task: %v", err)
	}

	s.cache.Set(ctx, task)
	s.logCall("PollTask", req.TaskID, start, true, "")
	return pollResponseFromTask(task, true), nil
}

func pollResponseFromTask(t *domain.Task, found bool) *taskpb.PollTaskResponse {
	return &taskpb.PollTaskResponse{
		Found:        found,
		TaskStatus:   taskpb.TaskStatus(t.TaskStatus),
		ResultStatus: taskpb.ResultStatus(t.ResultStatus),
		Returned:     t.Returned,
		ErrorMessage: t.ErrorMessage,
	}
}

func (s *Server) logCall(method, taskID string, start time.Time, success bool, errMsg string) {
	s.callLog.Log(&logging.CallLog{
		Component:  "gateway",
		Method:     method,
		TaskID:     taskID,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    success,
		Error:      errMsg,
	})
}

// newTaskID generates a 32-character lowercase hex task_id, the Go
// equivalent of Python's uuid.uuid4().hex (SPEC_FULL §3.8).
func newTaskID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func redundancyFromWire(r *taskpb.RedundancyOptions) (domain.RedundancyOptions, error) {
	if r == nil {
		return redundancy.Classic(), nil
	}
	return redundancy.CreateOptions(redundancy.Options{
		MinQuorum:         optionalInt32(r.MinQuorum),
		TargetNResults:    optionalInt32(r.TargetNresults),
		MaxErrorResults:   optionalInt32(r.MaxErrorResults),
		MaxTotalResults:   optionalInt32(r.MaxTotalResults),
		MaxSuccessResults: optionalInt32(r.MaxSuccessResults),
		DelayBound:        optionalInt32(r.DelayBound),
	})
}

// optionalInt32 treats the wire message's zero value as "unset", since
// proto3-style scalar fields carry no separate presence bit here.
func optionalInt32(v int32) *int32 {
	if v == 0 {
		return nil
	}
	return &v
}
