package grpc

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/runner"
)

// Planner is the planning surface the server exposes. *runner.Runner
// implements it.
type Planner interface {
	Plan(ctx context.Context) (*domain.Plan, error)
	ComputeAffected(ctx context.Context) (*runner.AffectedResult, error)
	Square(n int) (*domain.Square, error)
	History(ctx context.Context, limit int) ([]*domain.Run, error)
}

// Server is the gRPC server for the Planner service.
type Server struct {
	planner    Planner
	grpcServer *grpc.Server
	health     *health.Server

	// mu serializes runs; they share the artifact directory and the
	// checksum store.
	mu sync.Mutex
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithServerOptions passes extra options to the underlying grpc.Server.
func WithServerOptions(opts ...grpc.ServerOption) ServerOption {
	return func(s *Server) {
		s.grpcServer = grpc.NewServer(append(defaultServerOptions(), opts...)...)
	}
}

// NewServer creates a new gRPC server.
func NewServer(planner Planner, opts ...ServerOption) *Server {
	s := &Server{
		planner: planner,
		health:  health.NewServer(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.grpcServer == nil {
		s.grpcServer = grpc.NewServer(defaultServerOptions()...)
	}

	s.grpcServer.RegisterService(&PlannerServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

func defaultServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(),
			RecoveryInterceptor(),
		),
	}
}

// Serve starts the gRPC server on the given address.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	log.Printf("gRPC server listening on %s", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks the service not serving and stops the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// LoggingInterceptor returns a gRPC interceptor that logs requests and their duration.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		if runID := extractRunID(resp); runID != "" {
			log.Printf("gRPC call: %s [run:%s] duration=%v", info.FullMethod, runID, duration)
		} else {
			log.Printf("gRPC call: %s duration=%v", info.FullMethod, duration)
		}

		if err != nil {
			log.Printf("gRPC error: %s: %v", info.FullMethod, err)
		}
		return resp, err
	}
}

func extractRunID(resp interface{}) string {
	st, ok := resp.(*structpb.Struct)
	if !ok {
		return ""
	}
	return st.GetFields()["run_id"].GetStringValue()
}

// RecoveryInterceptor returns a gRPC interceptor that recovers from panics.
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("gRPC panic recovered: %s: %v", info.FullMethod, r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
