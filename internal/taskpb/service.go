package taskpb

import (
	"context"

	"google.golang.org/grpc"
)

// TaskServiceServer is the Task Gateway's RPC surface (spec §6).
type TaskServiceServer interface {
	CreateTask(context.Context, *CreateTaskRequest) (*CreateTaskResponse, error)
	PollTask(context.Context, *PollTaskRequest) (*PollTaskResponse, error)
}

// TaskServiceClient is the client-side stub, used by internal/rpcclient.
type TaskServiceClient interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest, opts ...grpc.CallOption) (*CreateTaskResponse, error)
	PollTask(ctx context.Context, req *PollTaskRequest, opts ...grpc.CallOption) (*PollTaskResponse, error)
}

type taskServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTaskServiceClient wraps a grpc.ClientConn (or any
// grpc.ClientConnInterface, e.g. for testing) as a TaskServiceClient.
func NewTaskServiceClient(cc grpc.ClientConnInterface) TaskServiceClient {
	return &taskServiceClient{cc: cc}
}

func (c *taskServiceClient) CreateTask(ctx context.Context, req *CreateTaskRequest, opts ...grpc.CallOption) (*CreateTaskResponse, error) {
	out := new(CreateTaskResponse)
	if err := c.cc.Invoke(ctx, "/stoilo.task.TaskService/CreateTask", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskServiceClient) PollTask(ctx context.Context, req *PollTaskRequest, opts ...grpc.CallOption) (*PollTaskResponse, error) {
	out := new(PollTaskResponse)
	if err := c.cc.Invoke(ctx, "/stoilo.task.TaskService/PollTask", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _TaskService_CreateTask_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateTaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaskServiceServer).CreateTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/stoilo.task.TaskService/CreateTask",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TaskServiceServer).CreateTask(ctx, req.(*CreateTaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TaskService_PollTask_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PollTaskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaskServiceServer).PollTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/stoilo.task.TaskService/PollTask",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TaskServiceServer).PollTask(ctx, req.(*PollTaskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for TaskService, hand-rolled in
// the shape protoc-gen-go-grpc would have produced.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "stoilo.task.TaskService",
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateTask", Handler: _TaskService_CreateTask_Handler},
		{MethodName: "PollTask", Handler: _TaskService_PollTask_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "task_service.proto",
}

// RegisterTaskServiceServer registers srv with s.
func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
