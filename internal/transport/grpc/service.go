package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified Planner service name.
const ServiceName = "flakeorder.v1.Planner"

// Full method names.
const (
	PlanMethod     = "/" + ServiceName + "/Plan"
	SquareMethod   = "/" + ServiceName + "/Square"
	AffectedMethod = "/" + ServiceName + "/Affected"
	HistoryMethod  = "/" + ServiceName + "/History"
)

// PlannerServer is the server API for the Planner service. Requests and
// responses are google.protobuf.Struct messages.
type PlannerServer interface {
	Plan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Square(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Affected(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// PlannerServiceDesc describes the Planner service for grpc.Server.RegisterService.
var PlannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Plan", Handler: unaryHandler(PlanMethod, PlannerServer.Plan)},
		{MethodName: "Square", Handler: unaryHandler(SquareMethod, PlannerServer.Square)},
		{MethodName: "Affected", Handler: unaryHandler(AffectedMethod, PlannerServer.Affected)},
		{MethodName: "History", Handler: unaryHandler(HistoryMethod, PlannerServer.History)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flakeorder/v1/planner.proto",
}

type plannerMethod func(PlannerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call plannerMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlannerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PlannerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PlannerClient is the client API for the Planner service.
type PlannerClient struct {
	cc grpc.ClientConnInterface
}

// NewPlannerClient creates a client on cc.
func NewPlannerClient(cc grpc.ClientConnInterface) *PlannerClient {
	return &PlannerClient{cc: cc}
}

func (c *PlannerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Plan runs the planning pipeline on the server.
func (c *PlannerClient) Plan(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PlanMethod, nil, opts...)
}

// Square asks the server for a square of the given order.
func (c *PlannerClient) Square(ctx context.Context, order int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"order": order})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, SquareMethod, in, opts...)
}

// Affected computes the affected tests on the server.
func (c *PlannerClient) Affected(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, AffectedMethod, nil, opts...)
}

// History lists up to limit recent runs.
func (c *PlannerClient) History(ctx context.Context, limit int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, HistoryMethod, in, opts...)
}
