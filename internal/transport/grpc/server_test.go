package grpc

import (
	"context"
	"errors"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/runner"
	"github.com/example/flakeorder/detector/square"
)

type fakePlanner struct {
	planErr   error
	panicPlan bool
	inFlight  atomic.Int32
	overlap   atomic.Bool
	runs      []*domain.Run
}

func (f *fakePlanner) Plan(ctx context.Context) (*domain.Plan, error) {
	if f.panicPlan {
		panic("boom")
	}
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)
	time.Sleep(5 * time.Millisecond)

	if f.planErr != nil {
		return nil, f.planErr
	}
	return &domain.Plan{
		RunID:         "run-1",
		UniverseSize:  3,
		Affected:      []string{"A.t", "B.t"},
		Units:         []string{"A", "B"},
		RequiredPairs: 2,
		Schedules: []domain.Schedule{
			{Tests: []string{"A.t", "B.t"}},
			{Tests: []string{"B.t", "A.t"}},
		},
		Construction: domain.ConstructionCyclic,
		SquareOrder:  2,
	}, nil
}

func (f *fakePlanner) ComputeAffected(ctx context.Context) (*runner.AffectedResult, error) {
	return &runner.AffectedResult{
		Universe:  []string{"A.t", "B.t", "C.t"},
		Tests:     []string{"A.t", "B.t", "C.t"},
		SelectAll: true,
		Reason:    "classpath changed",
	}, nil
}

func (f *fakePlanner) Square(n int) (*domain.Square, error) {
	return square.NewGenerator().Generate(n)
}

func (f *fakePlanner) History(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func startServer(t *testing.T, planner Planner) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(planner)
	go func() {
		_ = srv.ServeListener(lis)
	}()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPlanRPC(t *testing.T) {
	conn := startServer(t, &fakePlanner{})
	client := NewPlannerClient(conn)

	resp, err := client.Plan(context.Background())
	require.NoError(t, err)

	m := resp.AsMap()
	assert.Equal(t, "run-1", m["run_id"])
	assert.Equal(t, "COMPLETE", m["status"])
	assert.Equal(t, "cyclic", m["construction"])
	assert.Equal(t, float64(2), m["required_pairs"])
	schedules, ok := m["schedules"].([]interface{})
	require.True(t, ok)
	require.Len(t, schedules, 2)
	assert.Equal(t, []interface{}{"B.t", "A.t"}, schedules[1])
}

func TestSquareRPC(t *testing.T) {
	conn := startServer(t, &fakePlanner{})
	client := NewPlannerClient(conn)

	resp, err := client.Square(context.Background(), 4)
	require.NoError(t, err)
	m := resp.AsMap()
	assert.Equal(t, float64(4), m["order"])
	assert.Equal(t, true, m["exact"])
	rows, ok := m["rows"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 4)

	_, err = client.Square(context.Background(), 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.invoke(context.Background(), SquareMethod, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "missing order accepted")
}

func TestSquareRPCRejectsOrderAboveLimit(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.MaxSquareOrder = 16
	r, err := runner.NewRunner(cfg, &runner.FakeFacts{}, func() string { return "run-1" })
	require.NoError(t, err)
	client := NewPlannerClient(startServer(t, r))

	resp, err := client.Square(context.Background(), 16)
	require.NoError(t, err)
	assert.Equal(t, float64(16), resp.AsMap()["order"])

	_, err = client.Square(context.Background(), 17)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.Square(context.Background(), math.MaxInt32)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAffectedAndHistoryRPC(t *testing.T) {
	now := time.Now().UTC()
	planner := &fakePlanner{runs: []*domain.Run{
		{ID: "r2", Status: domain.RunIncomplete, CreatedAt: now, CompletedAt: &now},
		{ID: "r1", Status: domain.RunFailed, FailureReason: "no facts", CreatedAt: now},
	}}
	conn := startServer(t, planner)
	client := NewPlannerClient(conn)

	resp, err := client.Affected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, resp.AsMap()["select_all"])
	assert.Equal(t, "classpath changed", resp.AsMap()["reason"])

	resp, err = client.History(context.Background(), 1)
	require.NoError(t, err)
	runs := resp.AsMap()["runs"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, "r2", runs[0].(map[string]interface{})["id"])
}

func TestErrorMapping(t *testing.T) {
	conn := startServer(t, &fakePlanner{planErr: errors.New("disk full")})
	_, err := NewPlannerClient(conn).Plan(context.Background())
	assert.Equal(t, codes.Internal, status.Code(err))

	conn = startServer(t, &fakePlanner{planErr: domain.ErrInvalidConfig})
	_, err = NewPlannerClient(conn).Plan(context.Background())
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRecoveryInterceptor(t *testing.T) {
	conn := startServer(t, &fakePlanner{panicPlan: true})
	_, err := NewPlannerClient(conn).Plan(context.Background())
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestPlansAreSerialized(t *testing.T) {
	planner := &fakePlanner{}
	conn := startServer(t, planner)
	client := NewPlannerClient(conn)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Plan(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.False(t, planner.overlap.Load(), "plans ran concurrently")
}

func TestHealth(t *testing.T) {
	conn := startServer(t, &fakePlanner{})
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestMapErrorToStatus(t *testing.T) {
	assert.NoError(t, MapErrorToStatus(nil))
	assert.Equal(t, codes.NotFound, status.Code(MapErrorToStatus(domain.ErrRunNotFound)))
	assert.Equal(t, codes.FailedPrecondition, status.Code(MapErrorToStatus(domain.ErrInvalidState)))
	assert.Equal(t, codes.InvalidArgument, status.Code(MapErrorToStatus(domain.ErrInvalidOrder)))
	orig := status.Error(codes.Unavailable, "down")
	assert.Equal(t, orig, MapErrorToStatus(orig))
}
